package runtime

// Cell is a variable's storage slot. A cell is either Owned (private to its
// environment, replaced wholesale on assignment) or Shared (a reference
// counted slot whose writes are visible to every holder). Shared is the only
// aliasing channel in the runtime: a binding gets a Shared cell exactly when
// the parser's capture analysis saw a nested function reference it.
type Cell interface {
	// Get reads the current value out of the slot.
	Get() Value
	// Shared reports whether writes through this cell alias other holders.
	Shared() bool
}

// OwnedCell holds a value privately.
type OwnedCell struct {
	Value Value
}

func (c OwnedCell) Get() Value   { return c.Value }
func (c OwnedCell) Shared() bool { return false }

// SharedCell aliases one mutable slot across an environment and any closures
// that captured the binding.
type SharedCell struct {
	slot *Value
}

// NewShared wraps a value in a fresh shared slot.
func NewShared(v Value) *SharedCell {
	return &SharedCell{slot: &v}
}

func (c *SharedCell) Get() Value   { return *c.slot }
func (c *SharedCell) Shared() bool { return true }

// Set replaces the slot contents in place; every holder observes the write.
func (c *SharedCell) Set(v Value) { *c.slot = v }

// NewCell picks the cell flavour from a capture flag.
func NewCell(v Value, captured bool) Cell {
	if captured {
		return NewShared(v)
	}
	return OwnedCell{Value: v}
}
