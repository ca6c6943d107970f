package runtime

// Environment is one lexical scope: a name to cell mapping. Scope-chain
// search is the Stack's job; every operation here touches only this scope.
type Environment struct {
	state map[string]Cell
}

// NewEnvironment builds an empty scope.
func NewEnvironment() *Environment {
	return &Environment{state: make(map[string]Cell)}
}

// Lookup returns the cell bound to name in this scope, if any.
func (e *Environment) Lookup(name string) (Cell, bool) {
	cell, ok := e.state[name]
	return cell, ok
}

// Has reports whether name is bound in this scope.
func (e *Environment) Has(name string) bool {
	_, ok := e.state[name]
	return ok
}

// Declare inserts a new binding. It fails when the name is already bound in
// this scope; shadowing belongs to nested scopes, not redeclaration.
func (e *Environment) Declare(name string, cell Cell) bool {
	if e.Has(name) {
		return false
	}
	e.state[name] = cell
	return true
}

// Assign replaces the value bound to name. A Shared cell is written through
// in place so aliases observe the new value; an Owned cell is replaced
// wholesale, never affecting any other binding. Returns false when the name
// is absent from this scope.
func (e *Environment) Assign(name string, value Value) bool {
	cell, ok := e.state[name]
	if !ok {
		return false
	}
	if shared, ok := cell.(*SharedCell); ok {
		shared.Set(value)
		return true
	}
	e.state[name] = OwnedCell{Value: value}
	return true
}

// Upsert inserts or overwrites unconditionally. Used when seeding parameter
// frames and capture snapshots.
func (e *Environment) Upsert(name string, cell Cell) {
	e.state[name] = cell
}

// Each visits every binding in this scope. Iteration order is unspecified;
// capture only copies shared cells, for which order is irrelevant.
func (e *Environment) Each(fn func(name string, cell Cell)) {
	for name, cell := range e.state {
		fn(name, cell)
	}
}

// Clone copies the scope. Shared cells are copied as references, preserving
// write-through aliasing; Owned cells are copied by value.
func (e *Environment) Clone() *Environment {
	clone := NewEnvironment()
	for name, cell := range e.state {
		clone.state[name] = cell
	}
	return clone
}

// Len reports the number of bindings.
func (e *Environment) Len() int { return len(e.state) }
