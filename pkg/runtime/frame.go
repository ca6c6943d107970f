package runtime

// Frame is one call or block activation record, exclusively owning one
// Environment. A call frame is a resolution barrier: name lookup from inside
// a function never walks past it into the caller's frames.
type Frame struct {
	env     *Environment
	barrier bool
	callee  string // diagnostic label for call frames
}

// NewFrame builds a block frame with a fresh scope.
func NewFrame() *Frame {
	return &Frame{env: NewEnvironment()}
}

// NewCallFrame builds a barrier frame over a closure's captured scope.
func NewCallFrame(env *Environment, callee string) *Frame {
	return &Frame{env: env, barrier: true, callee: callee}
}

// Env exposes the frame's scope.
func (f *Frame) Env() *Environment { return f.env }

// Barrier reports whether lookup stops at this frame.
func (f *Frame) Barrier() bool { return f.barrier }

// Callee returns the diagnostic label of a call frame.
func (f *Frame) Callee() string { return f.callee }
