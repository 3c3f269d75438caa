package dedup

import (
	"testing"
)

func TestUnionFind(t *testing.T) {
	uf := newUnionFind()

	uf.union(1, 2)
	uf.union(3, 4)

	if uf.find(1) != uf.find(2) {
		t.Error("1 and 2 should share a root after union")
	}
	if uf.find(3) != uf.find(4) {
		t.Error("3 and 4 should share a root after union")
	}
	if uf.find(1) == uf.find(3) {
		t.Error("1 and 3 should not share a root")
	}

	// Bridging 2 and 3 connects all four.
	uf.union(2, 3)
	root := uf.find(1)
	for _, id := range []int64{2, 3, 4} {
		if uf.find(id) != root {
			t.Errorf("find(%d) = %d, want %d after bridge union", id, uf.find(id), root)
		}
	}
}

func TestUnionFindSingleton(t *testing.T) {
	uf := newUnionFind()
	if got := uf.find(42); got != 42 {
		t.Errorf("find on unseen id = %d, want 42", got)
	}
}

func TestUnionFindIdempotent(t *testing.T) {
	uf := newUnionFind()
	uf.union(1, 2)
	uf.union(1, 2)
	uf.union(2, 1)
	if uf.find(1) != uf.find(2) {
		t.Error("repeated unions should keep 1 and 2 connected")
	}
}
