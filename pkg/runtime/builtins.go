package runtime

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tenda-lang/tenda/pkg/ast"
	"github.com/tenda-lang/tenda/pkg/scanner"
	"github.com/tenda-lang/tenda/pkg/source"
)

// spanless marks diagnostics produced inside prelude callbacks; the call
// site's span is attached when the diagnostic crosses CallValue.
var spanless = source.Span{}

// Prelude builds the base environment every execution resolves against after
// its own frames: the free functions plus the Matemática, Texto and Lista
// namespaces. The prelude is installed below the global frame, so programs
// can shadow its names but never assign through them.
func Prelude() *Environment {
	env := NewEnvironment()

	env.Upsert("exiba", native("exiba", []string{"valor"}, builtinPrint))
	env.Upsert("leia", native("leia", []string{"mensagem"}, builtinReadLine))
	env.Upsert("tipo", native("tipo", []string{"valor"}, builtinTypeOf))
	env.Upsert("agora", native("agora", nil, builtinNow))

	// The spellings the printer uses for special numbers resolve back to the
	// same values, so printed output reads as source.
	env.Upsert(scanner.PositiveInfinityLiteral, OwnedCell{Value: NumberValue{Val: math.Inf(1)}})
	env.Upsert(scanner.NaNLiteral, OwnedCell{Value: NumberValue{Val: math.NaN()}})

	env.Upsert("Matemática", OwnedCell{Value: mathModule()})
	env.Upsert("Texto", OwnedCell{Value: textModule()})
	env.Upsert("Lista", OwnedCell{Value: listModule()})

	return env
}

func native(name string, params []string, impl NativeFunc) Cell {
	return OwnedCell{Value: NativeFunctionValue{Name: name, Params: params, Impl: impl}}
}

func module(name string, bindings map[string]Cell) *ModuleValue {
	return &ModuleValue{Name: name, Bindings: bindings}
}

//-----------------------------------------------------------------------------
// Free functions
//-----------------------------------------------------------------------------

func builtinPrint(rt *Runtime, args []Value) (Value, *RuntimeError) {
	rt.Platform().Print(Format(args[0]) + "\n")
	return NilValue{}, nil
}

func builtinReadLine(rt *Runtime, args []Value) (Value, *RuntimeError) {
	if prompt, ok := args[0].(TextValue); ok && prompt.Val != "" {
		rt.Platform().Print(prompt.Val)
	}
	line, err := rt.Platform().ReadLine()
	if err != nil {
		return NilValue{}, nil
	}
	return TextValue{Val: line}, nil
}

func builtinTypeOf(_ *Runtime, args []Value) (Value, *RuntimeError) {
	return TextValue{Val: args[0].Kind().String()}, nil
}

// builtinNow reads the platform clock as fractional seconds since the epoch.
func builtinNow(rt *Runtime, _ []Value) (Value, *RuntimeError) {
	return NumberValue{Val: float64(rt.Platform().Now().UnixMilli()) / 1000}, nil
}

//-----------------------------------------------------------------------------
// Matemática
//-----------------------------------------------------------------------------

func mathModule() *ModuleValue {
	return module("Matemática", map[string]Cell{
		"pi": OwnedCell{Value: NumberValue{Val: math.Pi}},
		"e":  OwnedCell{Value: NumberValue{Val: math.E}},

		"absoluto":  mathUnary("absoluto", math.Abs),
		"raiz":      mathUnary("raiz", math.Sqrt),
		"piso":      mathUnary("piso", math.Floor),
		"teto":      mathUnary("teto", math.Ceil),
		"arredonde": mathUnary("arredonde", math.Round),
		"seno":      mathUnary("seno", math.Sin),
		"cosseno":   mathUnary("cosseno", math.Cos),
		"tangente":  mathUnary("tangente", math.Tan),
		"logaritmo": mathUnary("logaritmo", math.Log),

		"máximo": mathBinary("máximo", math.Max),
		"mínimo": mathBinary("mínimo", math.Min),

		"aleatório": native("aleatório", nil, func(rt *Runtime, _ []Value) (Value, *RuntimeError) {
			return NumberValue{Val: rt.Platform().Random()}, nil
		}),
	})
}

func mathUnary(name string, fn func(float64) float64) Cell {
	return native(name, []string{"valor"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
		n, err := argNumber(args, 0)
		if err != nil {
			return nil, err
		}
		return NumberValue{Val: fn(n)}, nil
	})
}

func mathBinary(name string, fn func(float64, float64) float64) Cell {
	return native(name, []string{"primeiro", "segundo"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
		a, err := argNumber(args, 0)
		if err != nil {
			return nil, err
		}
		b, err := argNumber(args, 1)
		if err != nil {
			return nil, err
		}
		return NumberValue{Val: fn(a, b)}, nil
	})
}

//-----------------------------------------------------------------------------
// Texto
//-----------------------------------------------------------------------------

func textModule() *ModuleValue {
	return module("Texto", map[string]Cell{
		"tamanho": native("tamanho", []string{"texto"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			t, err := argText(args, 0)
			if err != nil {
				return nil, err
			}
			return NumberValue{Val: float64(len([]rune(t)))}, nil
		}),
		"maiúsculas": textUnary("maiúsculas", strings.ToUpper),
		"minúsculas": textUnary("minúsculas", strings.ToLower),
		"apare":      textUnary("apare", strings.TrimSpace),
		"divida": native("divida", []string{"texto", "separador"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			t, err := argText(args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := argText(args, 1)
			if err != nil {
				return nil, err
			}
			parts := strings.Split(t, sep)
			elements := make([]Value, len(parts))
			for i, p := range parts {
				elements[i] = TextValue{Val: p}
			}
			return &ListValue{Elements: elements}, nil
		}),
		"substitua": native("substitua", []string{"texto", "de", "para"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			t, err := argText(args, 0)
			if err != nil {
				return nil, err
			}
			from, err := argText(args, 1)
			if err != nil {
				return nil, err
			}
			to, err := argText(args, 2)
			if err != nil {
				return nil, err
			}
			return TextValue{Val: strings.ReplaceAll(t, from, to)}, nil
		}),
		// número devolve Nada quando o texto não é um número válido.
		"número": native("número", []string{"texto"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			t, err := argText(args, 0)
			if err != nil {
				return nil, err
			}
			n, perr := strconv.ParseFloat(strings.TrimSpace(t), 64)
			if perr != nil {
				return NilValue{}, nil
			}
			return NumberValue{Val: n}, nil
		}),
	})
}

func textUnary(name string, fn func(string) string) Cell {
	return native(name, []string{"texto"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
		t, err := argText(args, 0)
		if err != nil {
			return nil, err
		}
		return TextValue{Val: fn(t)}, nil
	})
}

//-----------------------------------------------------------------------------
// Lista
//-----------------------------------------------------------------------------

func listModule() *ModuleValue {
	return module("Lista", map[string]Cell{
		"tamanho": native("tamanho", []string{"lista"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			return NumberValue{Val: float64(len(l.Elements))}, nil
		}),
		"insira": native("insira", []string{"lista", "valor"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			l.Elements = append(l.Elements, args[1])
			return args[0], nil
		}),
		"remova": native("remova", []string{"lista", "índice"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			n, err := argNumber(args, 1)
			if err != nil {
				return nil, err
			}
			if !isWhole(n) || n < 0 {
				return nil, &RuntimeError{Kind: ErrInvalidIndex, Bound: n}
			}
			index := int(n)
			if index >= len(l.Elements) {
				return nil, &RuntimeError{Kind: ErrIndexOutOfBounds, Index: index, Length: len(l.Elements)}
			}
			removed := l.Elements[index]
			l.Elements = append(l.Elements[:index], l.Elements[index+1:]...)
			return removed, nil
		}),
		"inverta": native("inverta", []string{"lista"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			for i, j := 0, len(l.Elements)-1; i < j; i, j = i+1, j-1 {
				l.Elements[i], l.Elements[j] = l.Elements[j], l.Elements[i]
			}
			return args[0], nil
		}),
		"ordene": native("ordene", []string{"lista"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			var sortErr *RuntimeError
			sort.SliceStable(l.Elements, func(i, j int) bool {
				if sortErr != nil {
					return false
				}
				less, err := applyBinary(ast.OpLess, l.Elements[i], l.Elements[j])
				if err != nil {
					sortErr = err
					return false
				}
				return less.(BooleanValue).Val
			})
			if sortErr != nil {
				return nil, sortErr
			}
			return args[0], nil
		}),
		"junte": native("junte", []string{"lista", "separador"}, func(_ *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			sep, err := argText(args, 1)
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(l.Elements))
			for i, e := range l.Elements {
				parts[i] = Format(e)
			}
			return TextValue{Val: strings.Join(parts, sep)}, nil
		}),
		"transforma": native("transforma", []string{"lista", "função"}, func(rt *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			mapped := make([]Value, 0, len(l.Elements))
			for _, e := range l.Elements {
				v, err := rt.CallValue(args[1], []Value{e}, spanless)
				if err != nil {
					return nil, err
				}
				mapped = append(mapped, v)
			}
			return &ListValue{Elements: mapped}, nil
		}),
		"filtra": native("filtra", []string{"lista", "função"}, func(rt *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			var kept []Value
			for _, e := range l.Elements {
				v, err := rt.CallValue(args[1], []Value{e}, spanless)
				if err != nil {
					return nil, err
				}
				if Truthy(v) {
					kept = append(kept, e)
				}
			}
			return &ListValue{Elements: kept}, nil
		}),
		"reduz": native("reduz", []string{"lista", "inicial", "função"}, func(rt *Runtime, args []Value) (Value, *RuntimeError) {
			l, err := argList(args, 0)
			if err != nil {
				return nil, err
			}
			acc := args[1]
			for _, e := range l.Elements {
				v, err := rt.CallValue(args[2], []Value{acc, e}, spanless)
				if err != nil {
					return nil, err
				}
				acc = v
			}
			return acc, nil
		}),
	})
}

//-----------------------------------------------------------------------------
// Argument helpers
//-----------------------------------------------------------------------------

func argNumber(args []Value, i int) (float64, *RuntimeError) {
	n, ok := args[i].(NumberValue)
	if !ok {
		return 0, &RuntimeError{Kind: ErrUnexpectedType, Expected: KindNumber, Found: args[i].Kind()}
	}
	return n.Val, nil
}

func argText(args []Value, i int) (string, *RuntimeError) {
	t, ok := args[i].(TextValue)
	if !ok {
		return "", &RuntimeError{Kind: ErrUnexpectedType, Expected: KindText, Found: args[i].Kind()}
	}
	return t.Val, nil
}

func argList(args []Value, i int) (*ListValue, *RuntimeError) {
	l, ok := args[i].(*ListValue)
	if !ok {
		return nil, &RuntimeError{Kind: ErrUnexpectedType, Expected: KindList, Found: args[i].Kind()}
	}
	return l, nil
}
