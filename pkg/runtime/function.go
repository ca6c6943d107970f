package runtime

import (
	"sync/atomic"

	"github.com/tenda-lang/tenda/pkg/ast"
	"github.com/tenda-lang/tenda/pkg/source"
)

var functionIDCounter atomic.Uint64

// Param is one parameter descriptor. Captured parameters are referenced by a
// function nested in the body and are bound into shared cells at call time.
type Param struct {
	Name     string
	Captured bool
}

// Metadata carries post-construction facts about a function: the name it was
// declared under and where. SelfName supports recursion without a forward
// declaration: it is bound into the function's own call frame at invocation
// time, not into the captured snapshot, so a `função f` can call f before
// the declaration of f completes.
type Metadata struct {
	SelfName string
	Span     source.Span
}

// FunctionValue is a closure: a parameter list, a body, and a snapshot of
// the shared bindings that were reachable when the closure was built. The
// snapshot is its own Environment, never an alias of the defining frame's.
type FunctionValue struct {
	ID     uint64
	Params []Param
	Env    *Environment
	Body   *ast.Block
	Meta   Metadata
}

// NewFunction builds a closure over the given captured snapshot.
func NewFunction(params []Param, env *Environment, body *ast.Block) *FunctionValue {
	return &FunctionValue{
		ID:     functionIDCounter.Add(1),
		Params: params,
		Env:    env,
		Body:   body,
	}
}

func (*FunctionValue) Kind() Kind { return KindFunction }

// Arity returns the parameter count.
func (f *FunctionValue) Arity() int { return len(f.Params) }

// NativeFunc is the implementation contract of a prelude callable. It
// receives already-evaluated arguments and the runtime for re-entrant calls
// (callbacks) and platform access.
type NativeFunc func(rt *Runtime, args []Value) (Value, *RuntimeError)

// NativeFunctionValue is a prelude callable. It satisfies the same call
// protocol as an interpreted function: arity check, left-to-right evaluated
// arguments, one result value or a diagnostic.
type NativeFunctionValue struct {
	Name   string
	Params []string
	Impl   NativeFunc
}

func (NativeFunctionValue) Kind() Kind { return KindNativeFunction }

// Arity returns the parameter count.
func (f NativeFunctionValue) Arity() int { return len(f.Params) }
