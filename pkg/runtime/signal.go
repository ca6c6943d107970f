package runtime

// SignalKind tags the outcome of executing one statement.
type SignalKind int

const (
	// SignalNormal is ordinary completion; execution continues with the
	// next sibling statement.
	SignalNormal SignalKind = iota
	// SignalReturn unwinds to the nearest function call.
	SignalReturn
	// SignalBreak unwinds to the nearest enclosing loop and stops it.
	SignalBreak
	// SignalContinue unwinds to the nearest enclosing loop's next pass.
	SignalContinue
	// SignalRaised carries a diagnostic toward the nearest handler, or the
	// top level when none catches it.
	SignalRaised
)

// Signal is the control outcome every statement execution returns. Any
// non-Normal signal short-circuits the remaining sibling statements and is
// re-raised by the caller; frames are popped on the way out so push and pop
// counts balance on every exit path.
type Signal struct {
	Kind  SignalKind
	Value Value         // Return payload; also the last value of a Normal expression statement
	Err   *RuntimeError // set iff Kind == SignalRaised
}

func normalSignal() Signal {
	return Signal{Kind: SignalNormal, Value: NilValue{}}
}

func normalValue(v Value) Signal {
	return Signal{Kind: SignalNormal, Value: v}
}

func returnSignal(v Value) Signal {
	return Signal{Kind: SignalReturn, Value: v}
}

func raisedSignal(err *RuntimeError) Signal {
	return Signal{Kind: SignalRaised, Err: err}
}
