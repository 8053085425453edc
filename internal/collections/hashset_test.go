package collections

import "testing"

func TestHashSetAddHasDelete(t *testing.T) {
	s := NewHashSet[int](func(v int) uint64 { return uint64(v) })

	if !s.Add(1) {
		t.Fatal("expected fresh add to return true")
	}
	if s.Add(1) {
		t.Fatal("expected duplicate add to return false")
	}
	if !s.Has(1) {
		t.Fatal("expected Has(1) to be true")
	}
	if s.Has(2) {
		t.Fatal("expected Has(2) to be false")
	}
	if !s.Delete(1) {
		t.Fatal("expected Delete(1) to report present")
	}
	if s.Has(1) {
		t.Fatal("expected 1 to be gone after delete")
	}
	if s.Delete(1) {
		t.Fatal("expected second Delete(1) to report absent")
	}
}

func TestHashSetGrowsAndRetainsMembers(t *testing.T) {
	s := NewHashSet[int](func(v int) uint64 { return uint64(v) })

	const n = 5000
	for i := 0; i < n; i++ {
		s.Add(i)
	}
	if s.Len() != n {
		t.Fatalf("Len() = %d, want %d", s.Len(), n)
	}
	for i := 0; i < n; i++ {
		if !s.Has(i) {
			t.Fatalf("missing member %d after growth", i)
		}
	}
}

func TestHashSetDeleteThenReinsert(t *testing.T) {
	s := NewHashSet[int](func(v int) uint64 { return uint64(v) })
	for i := 0; i < 100; i++ {
		s.Add(i)
	}
	for i := 0; i < 50; i++ {
		s.Delete(i)
	}
	for i := 0; i < 50; i++ {
		if s.Has(i) {
			t.Fatalf("%d should have been deleted", i)
		}
	}
	// Reinsertion must work even though tombstones occupy the probe chain.
	for i := 0; i < 50; i++ {
		if !s.Add(i) {
			t.Fatalf("reinsert of %d should report fresh add", i)
		}
	}
	if s.Len() != 100 {
		t.Fatalf("Len() = %d, want 100", s.Len())
	}
}

func TestHashSetMerge(t *testing.T) {
	a := NewHashSet[int](func(v int) uint64 { return uint64(v) })
	b := NewHashSet[int](func(v int) uint64 { return uint64(v) })
	a.Add(1)
	a.Add(2)
	b.Add(2)
	b.Add(3)

	a.Merge(b)
	for _, want := range []int{1, 2, 3} {
		if !a.Has(want) {
			t.Fatalf("merged set missing %d", want)
		}
	}
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}
}

// collisionHash forces every key into the same bucket to exercise the
// collision-budget growth trigger independent of the load-factor trigger.
func collisionHash(int) uint64 { return 0 }

func TestHashSetCollisionBudgetTriggersGrowth(t *testing.T) {
	s := NewHashSet[int](collisionHash)
	for i := 0; i < 40; i++ {
		if !s.Add(i) {
			t.Fatalf("Add(%d) should be fresh", i)
		}
	}
	for i := 0; i < 40; i++ {
		if !s.Has(i) {
			t.Fatalf("missing %d under forced collisions", i)
		}
	}
	// The load factor alone settles 40 keys in 64 slots; a probe run longer
	// than hashSetMaxProbe must have grown the table past that.
	if s.capacity <= 64 {
		t.Fatalf("capacity = %d, want growth past 64 from the probe budget", s.capacity)
	}
}
