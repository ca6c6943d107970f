package runtime_test

import (
	"testing"

	"github.com/tenda-lang/tenda/pkg/runtime"
)

func TestDictKeepsInsertionOrder(t *testing.T) {
	dict := runtime.NewDict()
	dict.Set(runtime.TextKey("c"), runtime.NumberValue{Val: 1})
	dict.Set(runtime.TextKey("a"), runtime.NumberValue{Val: 2})
	dict.Set(runtime.NumberKey(7), runtime.NumberValue{Val: 3})

	keys := dict.Keys()
	want := []string{`"c"`, `"a"`, "7"}
	if len(keys) != len(want) {
		t.Fatalf("want %d keys, got %d", len(want), len(keys))
	}
	for i, key := range keys {
		if key.String() != want[i] {
			t.Fatalf("position %d: want %s, got %s", i, want[i], key)
		}
	}
}

func TestDictSetOverwritesInPlace(t *testing.T) {
	dict := runtime.NewDict()
	dict.Set(runtime.TextKey("a"), runtime.NumberValue{Val: 1})
	dict.Set(runtime.TextKey("b"), runtime.NumberValue{Val: 2})
	dict.Set(runtime.TextKey("a"), runtime.NumberValue{Val: 10})

	if dict.Len() != 2 {
		t.Fatalf("overwrite must not grow the dict, len %d", dict.Len())
	}
	if dict.Keys()[0].String() != `"a"` {
		t.Fatal("overwrite must keep the original position")
	}
	got, _ := dict.Get(runtime.TextKey("a"))
	if n := got.(runtime.NumberValue); n.Val != 10 {
		t.Fatalf("want 10, got %v", n.Val)
	}
}

func TestDictDeleteKeepsOrder(t *testing.T) {
	dict := runtime.NewDict()
	dict.Set(runtime.TextKey("a"), runtime.NilValue{})
	dict.Set(runtime.TextKey("b"), runtime.NilValue{})
	dict.Set(runtime.TextKey("c"), runtime.NilValue{})

	if !dict.Delete(runtime.TextKey("b")) {
		t.Fatal("delete of a present key must report true")
	}
	if dict.Has(runtime.TextKey("b")) {
		t.Fatal("deleted key still present")
	}

	keys := dict.Keys()
	if len(keys) != 2 || keys[0].Text != "a" || keys[1].Text != "c" {
		t.Fatalf("want [a c], got %v", keys)
	}

	// The index must stay valid after the reindex.
	got, ok := dict.Get(runtime.TextKey("c"))
	if !ok {
		t.Fatal("lookup after delete failed")
	}
	if _, isNil := got.(runtime.NilValue); !isNil {
		t.Fatal("wrong value after delete")
	}
}

func TestTextAndNumberKeysAreDistinct(t *testing.T) {
	dict := runtime.NewDict()
	dict.Set(runtime.TextKey("1"), runtime.TextValue{Val: "texto"})
	dict.Set(runtime.NumberKey(1), runtime.TextValue{Val: "número"})

	if dict.Len() != 2 {
		t.Fatalf("text and number keys must not collide, len %d", dict.Len())
	}
}
