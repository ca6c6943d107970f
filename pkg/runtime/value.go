package runtime

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tenda-lang/tenda/pkg/scanner"
)

// Kind identifies the runtime value category. The set is closed: every
// consumption site switches exhaustively over it.
type Kind int

const (
	KindNumber Kind = iota
	KindText
	KindBoolean
	KindNil
	KindList
	KindDict
	KindRange
	KindFunction
	KindNativeFunction
	KindModule
)

// String returns the Portuguese type name used in diagnostics.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "número"
	case KindText:
		return "texto"
	case KindBoolean:
		return "lógico"
	case KindNil:
		return "Nada"
	case KindList:
		return "lista"
	case KindDict:
		return "dicionário"
	case KindRange:
		return "intervalo"
	case KindFunction, KindNativeFunction:
		return "função"
	case KindModule:
		return "módulo"
	default:
		return fmt.Sprintf("desconhecido_%d", int(k))
	}
}

// Value is the shared behaviour of all runtime values. Scalars have value
// semantics; lists, dictionaries and functions are shared by reference.
type Value interface {
	Kind() Kind
}

type NumberValue struct {
	Val float64
}

func (NumberValue) Kind() Kind { return KindNumber }

type TextValue struct {
	Val string
}

func (TextValue) Kind() Kind { return KindText }

type BooleanValue struct {
	Val bool
}

func (BooleanValue) Kind() Kind { return KindBoolean }

type NilValue struct{}

func (NilValue) Kind() Kind { return KindNil }

// ListValue is an ordered, mutable sequence. Aliases observe mutation.
type ListValue struct {
	Elements []Value
}

func (*ListValue) Kind() Kind { return KindList }

// RangeValue is the inclusive integer interval produced by `até`.
type RangeValue struct {
	Start int
	End   int
}

func (RangeValue) Kind() Kind { return KindRange }

// ModuleValue exposes an imported module's exported bindings. Members read
// through the exported cells, so a Shared export stays write-through.
type ModuleValue struct {
	Name     string
	Bindings map[string]Cell
}

func (*ModuleValue) Kind() Kind { return KindModule }

// Truthy reports the boolean interpretation of a value: Nada is false,
// numbers are false at zero, everything else is true.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case NumberValue:
		return v.Val != 0
	case BooleanValue:
		return v.Val
	case NilValue:
		return false
	default:
		return true
	}
}

// Format renders a value the way the REPL and `exiba` print it.
func Format(v Value) string {
	switch v := v.(type) {
	case NumberValue:
		return formatNumber(v.Val)
	case TextValue:
		return v.Val
	case BooleanValue:
		if v.Val {
			return scanner.TrueLiteral
		}
		return scanner.FalseLiteral
	case NilValue:
		return scanner.NilLiteral
	case *ListValue:
		parts := make([]string, len(v.Elements))
		for i, e := range v.Elements {
			parts[i] = FormatQuoted(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case RangeValue:
		return fmt.Sprintf("%d até %d", v.Start, v.End)
	case *DictValue:
		parts := make([]string, 0, len(v.entries))
		for _, entry := range v.entries {
			parts = append(parts, fmt.Sprintf("%s: %s", entry.Key, FormatQuoted(entry.Value)))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case *FunctionValue:
		return fmt.Sprintf("<função %#x>", v.ID)
	case NativeFunctionValue:
		return fmt.Sprintf("<função %s>", v.Name)
	case *ModuleValue:
		return fmt.Sprintf("<módulo %s>", v.Name)
	default:
		return fmt.Sprintf("<%s>", v.Kind())
	}
}

// FormatQuoted is Format except that text is quoted and escaped, as inside
// list and dictionary displays.
func FormatQuoted(v Value) string {
	if t, ok := v.(TextValue); ok {
		return `"` + EscapeText(t.Val) + `"`
	}
	return Format(v)
}

// EscapeText rewrites control characters and quotes as escape sequences.
func EscapeText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case '\r':
			b.WriteString(`\r`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

func formatNumber(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return scanner.PositiveInfinityLiteral
	case math.IsInf(v, -1):
		return scanner.NegativeInfinityLiteral
	case math.IsNaN(v):
		return scanner.NaNLiteral
	default:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
}

// Equal implements the language's `é` comparison. Lists and dictionaries
// compare structurally; functions compare by identity.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case NumberValue:
		b, ok := b.(NumberValue)
		return ok && a.Val == b.Val
	case TextValue:
		b, ok := b.(TextValue)
		return ok && a.Val == b.Val
	case BooleanValue:
		b, ok := b.(BooleanValue)
		return ok && a.Val == b.Val
	case NilValue:
		_, ok := b.(NilValue)
		return ok
	case RangeValue:
		b, ok := b.(RangeValue)
		return ok && a == b
	case *ListValue:
		b, ok := b.(*ListValue)
		if !ok || len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !Equal(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case *DictValue:
		b, ok := b.(*DictValue)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, entry := range a.entries {
			other, found := b.Get(entry.Key)
			if !found || !Equal(entry.Value, other) {
				return false
			}
		}
		return true
	case *FunctionValue:
		b, ok := b.(*FunctionValue)
		return ok && a.ID == b.ID
	case NativeFunctionValue:
		b, ok := b.(NativeFunctionValue)
		return ok && a.Name == b.Name
	case *ModuleValue:
		b, ok := b.(*ModuleValue)
		return ok && a == b
	default:
		return false
	}
}
