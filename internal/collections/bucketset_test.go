package collections

import "testing"

func TestBucketSetAddHasDelete(t *testing.T) {
	b := NewBucketSet[uint32]()

	if !b.Add(10) {
		t.Fatal("expected fresh add to return true")
	}
	if b.Add(10) {
		t.Fatal("expected duplicate add to return false")
	}
	if !b.Has(10) {
		t.Fatal("expected Has(10) to be true")
	}
	if b.Has(11) {
		t.Fatal("expected Has(11) to be false")
	}
	if !b.Delete(10) {
		t.Fatal("expected Delete(10) to report present")
	}
	if b.Has(10) {
		t.Fatal("expected 10 to be gone after delete")
	}
}

func TestBucketSetAscendingIteration(t *testing.T) {
	b := NewBucketSet[uint32]()
	for _, v := range []uint32{50, 5, 20, 1, 100, 3} {
		b.Add(v)
	}
	var seen []uint32
	b.Range(func(v uint32) bool {
		seen = append(seen, v)
		return true
	})
	want := []uint32{1, 3, 5, 20, 50, 100}
	if len(seen) != len(want) {
		t.Fatalf("got %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("got %v, want %v", seen, want)
		}
	}
}

func TestBucketSetMergeIntersect(t *testing.T) {
	a := NewBucketSet[uint32]()
	b := NewBucketSet[uint32]()
	for _, v := range []uint32{1, 2, 3, 4} {
		a.Add(v)
	}
	for _, v := range []uint32{3, 4, 5, 6} {
		b.Add(v)
	}

	merged := a.Clone()
	merged.Merge(b)
	for _, want := range []uint32{1, 2, 3, 4, 5, 6} {
		if !merged.Has(want) {
			t.Fatalf("merged set missing %d", want)
		}
	}

	inter := a.Clone()
	inter.Intersect(b)
	if inter.Len() != 2 || !inter.Has(3) || !inter.Has(4) {
		t.Fatalf("intersection = %v, want {3,4}", inter.Items())
	}
}

func TestBucketSetSplitsOnOverflow(t *testing.T) {
	b := NewBucketSet[uint32]()
	const n = 3000
	for i := uint32(0); i < n; i++ {
		b.Add(i)
	}
	if b.Len() != n {
		t.Fatalf("Len() = %d, want %d", b.Len(), n)
	}
	for i := uint32(0); i < n; i++ {
		if !b.Has(i) {
			t.Fatalf("missing member %d after bucket splitting", i)
		}
	}
	if b.buckets.Len() < 2 {
		t.Fatalf("expected more than one top-level bucket past the cap, got %d", b.buckets.Len())
	}
}
