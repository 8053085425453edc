package collections

import "testing"

func intHash(v int) uint64 { return uint64(v) }
func intLess(a, b int) bool { return a < b }

func newIntMap() *OrderedMap[int, string] {
	return NewOrderedMap[int, string](intHash, intLess)
}

func TestOrderedMapInsertGet(t *testing.T) {
	m := newIntMap()

	if !m.Insert(5, "five") {
		t.Fatal("expected fresh insert to return true")
	}
	if m.Insert(5, "FIVE") {
		t.Fatal("expected overwrite to return false")
	}

	v, ok := m.Get(5)
	if !ok || v != "FIVE" {
		t.Fatalf("Get(5) = %q, %v; want FIVE, true", v, ok)
	}

	if _, ok := m.Get(6); ok {
		t.Fatal("Get(6) should miss")
	}
}

func TestOrderedMapAscendingIteration(t *testing.T) {
	m := newIntMap()
	values := []int{50, 10, 40, 20, 30, 5, 45}
	for _, v := range values {
		m.Insert(v, "")
	}

	var seen []int
	m.Range(func(k int, _ string) bool {
		seen = append(seen, k)
		return true
	})

	want := []int{5, 10, 20, 30, 40, 45, 50}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v, want %v", seen, want)
		}
	}
}

func TestOrderedMapHeightBalance(t *testing.T) {
	m := newIntMap()
	for i := 0; i < 500; i++ {
		m.Insert(i, "")
	}

	var maxDepth func(n *Node[int, string], depth int) int
	maxDepth = func(n *Node[int, string], depth int) int {
		if n == nil {
			return depth - 1
		}
		l := maxDepth(n.left, depth+1)
		r := maxDepth(n.right, depth+1)
		if l > r {
			return l
		}
		return r
	}

	depth := maxDepth(m.root, 0)
	// A balanced AVL tree of 500 nodes has depth roughly log2(500) ~ 9;
	// an unbalanced insertion-order chain would be 499. Guard generously.
	if depth > 30 {
		t.Fatalf("tree depth %d suggests AVL rebalancing is broken", depth)
	}
}

func TestOrderedMapDeleteInvokesOnRemove(t *testing.T) {
	m := newIntMap()
	var removed []int
	m.SetOnRemove(func(k int, _ string) { removed = append(removed, k) })

	for i := 1; i <= 10; i++ {
		m.Insert(i, "")
	}
	if !m.Delete(5) {
		t.Fatal("expected Delete(5) to report present")
	}
	if m.Delete(5) {
		t.Fatal("expected second Delete(5) to report absent")
	}
	if len(removed) != 1 || removed[0] != 5 {
		t.Fatalf("onRemove called with %v, want [5]", removed)
	}
	if m.Has(5) {
		t.Fatal("5 should no longer be a member")
	}
	if m.Len() != 9 {
		t.Fatalf("Len() = %d, want 9", m.Len())
	}
}

func TestOrderedMapLowerUpperBound(t *testing.T) {
	m := newIntMap()
	for _, v := range []int{10, 20, 30, 40} {
		m.Insert(v, "")
	}

	if k, _, ok := m.LowerBound(25); !ok || k != 30 {
		t.Fatalf("LowerBound(25) = %d, %v; want 30, true", k, ok)
	}
	if k, _, ok := m.LowerBound(20); !ok || k != 20 {
		t.Fatalf("LowerBound(20) = %d, %v; want 20, true", k, ok)
	}
	if k, _, ok := m.UpperBound(20); !ok || k != 30 {
		t.Fatalf("UpperBound(20) = %d, %v; want 30, true", k, ok)
	}
	if _, _, ok := m.LowerBound(41); ok {
		t.Fatal("LowerBound(41) should miss")
	}
}

func TestOrderedMapMinMax(t *testing.T) {
	m := newIntMap()
	if _, _, ok := m.Min(); ok {
		t.Fatal("Min() on empty map should miss")
	}
	for _, v := range []int{7, 3, 9, 1} {
		m.Insert(v, "")
	}
	if k, _, _ := m.Min(); k != 1 {
		t.Fatalf("Min() = %d, want 1", k)
	}
	if k, _, _ := m.Max(); k != 9 {
		t.Fatalf("Max() = %d, want 9", k)
	}
}

func TestOrderedMapOnRelinkFiresOnRotation(t *testing.T) {
	m := newIntMap()
	relinked := 0
	m.SetOnRelink(func(*Node[int, string]) { relinked++ })

	// Strictly ascending inserts force rotations almost immediately.
	for i := 0; i < 20; i++ {
		m.Insert(i, "")
	}
	if relinked == 0 {
		t.Fatal("expected at least one relink callback from AVL rotations")
	}
}

func TestOrderedMapClear(t *testing.T) {
	m := newIntMap()
	for i := 0; i < 10; i++ {
		m.Insert(i, "")
	}
	m.Clear()
	if m.Len() != 0 {
		t.Fatalf("Len() after Clear() = %d, want 0", m.Len())
	}
	if _, ok := m.Get(0); ok {
		t.Fatal("Get(0) after Clear() should miss")
	}
}
