package runtime_test

import (
	"testing"

	"github.com/tenda-lang/tenda/pkg/runtime"
)

func TestLookupStopsAtCallBarrier(t *testing.T) {
	stack := runtime.NewStack()
	stack.Global().Declare("global", runtime.OwnedCell{Value: runtime.NumberValue{Val: 1}})

	caller := runtime.NewFrame()
	caller.Env().Declare("local_do_chamador", runtime.OwnedCell{Value: runtime.NumberValue{Val: 2}})
	if err := stack.Push(caller); err != nil {
		t.Fatalf("push: %v", err)
	}

	callee := runtime.NewCallFrame(runtime.NewEnvironment(), "f")
	if err := stack.Push(callee); err != nil {
		t.Fatalf("push: %v", err)
	}

	if _, ok := stack.Lookup("local_do_chamador"); ok {
		t.Fatal("lookup crossed a call barrier")
	}
	if _, ok := stack.Lookup("global"); !ok {
		t.Fatal("globals must stay visible past the barrier")
	}
}

func TestBlockFramesDoNotStopLookup(t *testing.T) {
	stack := runtime.NewStack()

	outer := runtime.NewFrame()
	outer.Env().Declare("x", runtime.OwnedCell{Value: runtime.NumberValue{Val: 1}})
	stack.Push(outer)
	stack.Push(runtime.NewFrame())

	if _, ok := stack.Lookup("x"); !ok {
		t.Fatal("block frames must not hide enclosing bindings")
	}
}

func TestPushBeyondCeilingFails(t *testing.T) {
	stack := runtime.NewStack()
	stack.SetMaxDepth(3)

	for i := 0; i < 3; i++ {
		if err := stack.Push(runtime.NewFrame()); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	err := stack.Push(runtime.NewFrame())
	if err == nil || err.Kind != runtime.ErrStackOverflow {
		t.Fatalf("want StackOverflow, got %v", err)
	}
	if !err.Fatal() {
		t.Fatal("overflow must be fatal")
	}
	if stack.Depth() != 3 {
		t.Fatalf("failed push must not grow the stack, depth %d", stack.Depth())
	}
}

func TestPopRestoresDepth(t *testing.T) {
	stack := runtime.NewStack()
	stack.Push(runtime.NewFrame())
	stack.Push(runtime.NewFrame())
	stack.Pop()
	stack.Pop()
	if stack.Depth() != 0 {
		t.Fatalf("want empty stack, depth %d", stack.Depth())
	}
}

func TestAssignRespectsBaseEnvironment(t *testing.T) {
	base := runtime.NewEnvironment()
	base.Declare("exiba", runtime.OwnedCell{Value: runtime.NilValue{}})
	stack := runtime.NewStackWithBase(base)

	err := stack.Assign("exiba", runtime.NumberValue{Val: 1})
	if err == nil || err.Kind != runtime.ErrAssignToBuiltin {
		t.Fatalf("want AssignToBuiltin, got %v", err)
	}
	err = stack.Assign("inexistente", runtime.NumberValue{Val: 1})
	if err == nil || err.Kind != runtime.ErrUndefinedReference {
		t.Fatalf("want UndefinedReference, got %v", err)
	}
}

func TestDefineRejectsDuplicates(t *testing.T) {
	stack := runtime.NewStack()
	if err := stack.Define("x", runtime.OwnedCell{Value: runtime.NilValue{}}); err != nil {
		t.Fatalf("first define: %v", err)
	}
	err := stack.Define("x", runtime.OwnedCell{Value: runtime.NilValue{}})
	if err == nil || err.Kind != runtime.ErrAlreadyDeclared {
		t.Fatalf("want AlreadyDeclared, got %v", err)
	}
}
