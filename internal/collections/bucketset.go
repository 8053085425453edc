package collections

import "sort"

// BucketSet is a sparse ordered set tuned for frequent set-of-integers
// operations (merge, intersect, membership) where keys cluster, grounded
// on original_source/source/core/bucketset.c. It is a tree of sorted
// buckets keyed by their smallest member; adding to a bucket that already
// holds bucketCap (empirical: 1024) entries splits it, moving its upper
// half into a new top-level bucket.
//
// LICM (internal/licm) and loop discovery (internal/loopnest) do not use
// it: their loop-body block sets and processed/hoist-candidate sets are
// plain Go maps.
type BucketSet[T Ordered] struct {
	buckets *OrderedMap[T, *bucket[T]]
	less    Less[T]
	size    int
}

const bucketCap = 1024

type bucket[T Ordered] struct {
	entries []T // sorted ascending, first element is the bucket's key
}

// Ordered constrains BucketSet keys to a hashable, orderable scalar.
type Ordered interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64
}

func ordHash[T Ordered](v T) uint64 { return uint64(v) }
func ordLess[T Ordered](a, b T) bool { return a < b }

// NewBucketSet constructs an empty bucket set over an ordered integer type.
func NewBucketSet[T Ordered]() *BucketSet[T] {
	return &BucketSet[T]{
		buckets: NewOrderedMap[T, *bucket[T]](ordHash[T], ordLess[T]),
		less:    ordLess[T],
	}
}

func (b *BucketSet[T]) Len() int { return b.size }

// bucketFor finds the bucket whose key is the largest key <= v, i.e. the
// bucket that would contain v if present.
func (b *BucketSet[T]) bucketFor(v T) (T, *bucket[T], bool) {
	key, bk, ok := b.buckets.LowerBound(v)
	if ok && key == v {
		return key, bk, true
	}
	// LowerBound gave us the smallest key >= v; the candidate bucket is the
	// one just before it.
	var prevKey T
	var prevBucket *bucket[T]
	found := false
	b.buckets.Range(func(k T, bk *bucket[T]) bool {
		if k > v {
			return false
		}
		prevKey, prevBucket, found = k, bk, true
		return true
	})
	if found {
		return prevKey, prevBucket, false
	}
	return key, bk, false
}

// Has reports whether v is a member.
func (b *BucketSet[T]) Has(v T) bool {
	_, bk, _ := b.bucketFor(v)
	if bk == nil {
		return false
	}
	i := sort.Search(len(bk.entries), func(i int) bool { return bk.entries[i] >= v })
	return i < len(bk.entries) && bk.entries[i] == v
}

// Add inserts v, returning true if it was newly added.
func (b *BucketSet[T]) Add(v T) bool {
	key, bk, exact := b.bucketFor(v)
	if bk == nil {
		b.buckets.Insert(v, &bucket[T]{entries: []T{v}})
		b.size++
		return true
	}
	if exact {
		// v is itself a bucket key; still need to check membership within it.
	}
	i := sort.Search(len(bk.entries), func(i int) bool { return bk.entries[i] >= v })
	if i < len(bk.entries) && bk.entries[i] == v {
		return false
	}
	if len(bk.entries) >= bucketCap {
		// Split: the upper half of the full bucket moves to a new top-level
		// bucket, and v goes into whichever half covers it.
		half := len(bk.entries) / 2
		upper := &bucket[T]{entries: append([]T(nil), bk.entries[half:]...)}
		bk.entries = bk.entries[:half:half]
		b.buckets.Insert(upper.entries[0], upper)
		if i > half {
			bk, key, i = upper, upper.entries[0], i-half
		}
	}
	bk.entries = append(bk.entries, v)
	copy(bk.entries[i+1:], bk.entries[i:len(bk.entries)-1])
	bk.entries[i] = v
	if key != bk.entries[0] {
		// Re-key the bucket if v became its new minimum.
		b.buckets.Delete(key)
		b.buckets.Insert(bk.entries[0], bk)
	}
	b.size++
	return true
}

// Delete removes v, reporting whether it was present.
func (b *BucketSet[T]) Delete(v T) bool {
	key, bk, _ := b.bucketFor(v)
	if bk == nil {
		return false
	}
	i := sort.Search(len(bk.entries), func(i int) bool { return bk.entries[i] >= v })
	if i >= len(bk.entries) || bk.entries[i] != v {
		return false
	}
	bk.entries = append(bk.entries[:i], bk.entries[i+1:]...)
	b.size--
	if len(bk.entries) == 0 {
		b.buckets.Delete(key)
		return true
	}
	if key != bk.entries[0] {
		b.buckets.Delete(key)
		b.buckets.Insert(bk.entries[0], bk)
	}
	return true
}

// Range calls fn for every member in ascending order, stopping early if fn
// returns false.
func (b *BucketSet[T]) Range(fn func(v T) bool) {
	stop := false
	b.buckets.Range(func(_ T, bk *bucket[T]) bool {
		for _, v := range bk.entries {
			if !fn(v) {
				stop = true
				return false
			}
		}
		return true
	})
	_ = stop
}

// Items returns all members in ascending order.
func (b *BucketSet[T]) Items() []T {
	items := make([]T, 0, b.size)
	b.Range(func(v T) bool {
		items = append(items, v)
		return true
	})
	return items
}

// Merge adds every member of other into b (set union).
func (b *BucketSet[T]) Merge(other *BucketSet[T]) {
	other.Range(func(v T) bool {
		b.Add(v)
		return true
	})
}

// Intersect removes every member of b not present in other (set
// intersection, in place).
func (b *BucketSet[T]) Intersect(other *BucketSet[T]) {
	var toRemove []T
	b.Range(func(v T) bool {
		if !other.Has(v) {
			toRemove = append(toRemove, v)
		}
		return true
	})
	for _, v := range toRemove {
		b.Delete(v)
	}
}

// Clone returns an independent copy of b.
func (b *BucketSet[T]) Clone() *BucketSet[T] {
	out := NewBucketSet[T]()
	b.Range(func(v T) bool {
		out.Add(v)
		return true
	})
	return out
}
