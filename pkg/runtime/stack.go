package runtime

// DefaultMaxDepth is the recursion ceiling applied when the host does not
// configure one. Exceeding it raises a fatal StackOverflow instead of
// exhausting host memory.
const DefaultMaxDepth = 10_000

// Stack is the live scope chain of one execution: a global frame plus the
// ordered activation frames above it, innermost last. An optional base
// environment below the global frame holds the prelude; it is readable from
// everywhere and never assignable.
type Stack struct {
	global   *Frame
	frames   []*Frame
	base     *Environment
	maxDepth int
}

// NewStack builds an empty stack with the default recursion ceiling.
func NewStack() *Stack {
	return &Stack{global: NewFrame(), maxDepth: DefaultMaxDepth}
}

// NewStackWithBase builds a stack whose name resolution falls through to the
// given read-only base environment.
func NewStackWithBase(base *Environment) *Stack {
	s := NewStack()
	s.base = base
	return s
}

// SetMaxDepth overrides the recursion ceiling.
func (s *Stack) SetMaxDepth(depth int) {
	if depth > 0 {
		s.maxDepth = depth
	}
}

// Depth reports the number of frames above the global frame.
func (s *Stack) Depth() int { return len(s.frames) }

// Push makes frame the innermost activation. It fails with StackOverflow
// when the recursion ceiling is hit.
func (s *Stack) Push(frame *Frame) *RuntimeError {
	if len(s.frames) >= s.maxDepth {
		return NewError(ErrStackOverflow)
	}
	s.frames = append(s.frames, frame)
	return nil
}

// Pop discards the innermost frame. Callers guarantee a pop for every
// successful push, on every exit path.
func (s *Stack) Pop() {
	if len(s.frames) == 0 {
		return
	}
	s.frames[len(s.frames)-1] = nil
	s.frames = s.frames[:len(s.frames)-1]
}

// Innermost returns the frame receiving declarations.
func (s *Stack) Innermost() *Frame {
	if len(s.frames) == 0 {
		return s.global
	}
	return s.frames[len(s.frames)-1]
}

// Global exposes the global frame's scope.
func (s *Stack) Global() *Environment { return s.global.Env() }

// Define declares a new binding in the innermost scope.
func (s *Stack) Define(name string, cell Cell) *RuntimeError {
	if !s.Innermost().Env().Declare(name, cell) {
		return &RuntimeError{Kind: ErrAlreadyDeclared, Name: name}
	}
	return nil
}

// Lookup resolves a name through the reachable scope chain: frames from the
// innermost outward, stopping after the nearest call barrier, then the
// global frame, then the base environment. A function body therefore sees
// its own locals, its parameters and captured snapshot, the globals and the
// prelude, and never the caller's locals.
func (s *Stack) Lookup(name string) (Cell, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		frame := s.frames[i]
		if cell, ok := frame.Env().Lookup(name); ok {
			return cell, true
		}
		if frame.Barrier() {
			break
		}
	}
	if cell, ok := s.global.Env().Lookup(name); ok {
		return cell, true
	}
	if s.base != nil {
		if cell, ok := s.base.Lookup(name); ok {
			return cell, true
		}
	}
	return nil, false
}

// Assign rebinds an existing name found through the same reachable chain as
// Lookup. Prelude bindings are visible but not assignable.
func (s *Stack) Assign(name string, value Value) *RuntimeError {
	for i := len(s.frames) - 1; i >= 0; i-- {
		frame := s.frames[i]
		if frame.Env().Assign(name, value) {
			return nil
		}
		if frame.Barrier() {
			break
		}
	}
	if s.global.Env().Assign(name, value) {
		return nil
	}
	if s.base != nil && s.base.Has(name) {
		return &RuntimeError{Kind: ErrAssignToBuiltin, Name: name}
	}
	return &RuntimeError{Kind: ErrUndefinedReference, Name: name}
}

// InLocalScope reports whether name is declared in the innermost scope.
func (s *Stack) InLocalScope(name string) bool {
	return s.Innermost().Env().Has(name)
}

// Reachable visits every environment on the stack from the global frame to
// the innermost. Closure construction walks it to snapshot shared cells.
func (s *Stack) Reachable(fn func(env *Environment)) {
	fn(s.global.Env())
	for _, frame := range s.frames {
		fn(frame.Env())
	}
}

// CalleeChain returns the call-frame labels outermost first, for diagnostics.
func (s *Stack) CalleeChain() []string {
	var chain []string
	for _, frame := range s.frames {
		if frame.Barrier() {
			chain = append(chain, frame.Callee())
		}
	}
	return chain
}
