package runtime

import "strconv"

// DictKey is a dictionary key: an integer or a text, matching the surface
// syntax.
type DictKey struct {
	IsNumber bool
	Text     string
	Number   int64
}

// TextKey builds a text key.
func TextKey(s string) DictKey { return DictKey{Text: s} }

// NumberKey builds an integer key.
func NumberKey(n int64) DictKey { return DictKey{IsNumber: true, Number: n} }

func (k DictKey) String() string {
	if k.IsNumber {
		return strconv.FormatInt(k.Number, 10)
	}
	return `"` + k.Text + `"`
}

// Value returns the key as a runtime value.
func (k DictKey) Value() Value {
	if k.IsNumber {
		return NumberValue{Val: float64(k.Number)}
	}
	return TextValue{Val: k.Text}
}

type dictEntry struct {
	Key   DictKey
	Value Value
}

// DictValue is an insertion-ordered mutable mapping. Aliases observe
// mutation, like lists.
type DictValue struct {
	entries []dictEntry
	index   map[DictKey]int
}

// NewDict builds an empty dictionary.
func NewDict() *DictValue {
	return &DictValue{index: make(map[DictKey]int)}
}

func (*DictValue) Kind() Kind { return KindDict }

// Len reports the number of entries.
func (d *DictValue) Len() int { return len(d.entries) }

// Get looks a key up.
func (d *DictValue) Get(key DictKey) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.entries[i].Value, true
}

// Has reports whether the key is present.
func (d *DictValue) Has(key DictKey) bool {
	_, ok := d.index[key]
	return ok
}

// Set inserts or replaces a key, preserving first-insertion order.
func (d *DictValue) Set(key DictKey, value Value) {
	if i, ok := d.index[key]; ok {
		d.entries[i].Value = value
		return
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, dictEntry{Key: key, Value: value})
}

// Delete removes a key, keeping the remaining order stable.
func (d *DictValue) Delete(key DictKey) bool {
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.entries = append(d.entries[:i], d.entries[i+1:]...)
	delete(d.index, key)
	for j := i; j < len(d.entries); j++ {
		d.index[d.entries[j].Key] = j
	}
	return true
}

// Keys returns the keys in insertion order.
func (d *DictValue) Keys() []DictKey {
	keys := make([]DictKey, len(d.entries))
	for i, entry := range d.entries {
		keys[i] = entry.Key
	}
	return keys
}
