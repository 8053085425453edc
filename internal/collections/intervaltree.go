package collections

// Interval is a half-open [Begin, End) range keyed by its start point.
type Interval struct {
	Begin, End int64
}

func (iv Interval) contains(point int64) bool {
	return point >= iv.Begin && point < iv.End
}

// IntervalTree is ordered by interval-begin, then interval-end. Nodes do
// not track a subtree maximum end-point, so a stabbing query (every
// interval containing a point) scans every interval that begins at or
// before the point. Used to index debug-info source location ranges.
type IntervalTree[V any] struct {
	values *OrderedMap[Interval, V]
}

func intervalHash(iv Interval) uint64 { return uint64(iv.Begin) }

func intervalLess(a, b Interval) bool {
	if a.Begin != b.Begin {
		return a.Begin < b.Begin
	}
	return a.End < b.End
}

// NewIntervalTree constructs an empty interval tree.
func NewIntervalTree[V any]() *IntervalTree[V] {
	t := &IntervalTree[V]{
		values: NewOrderedMap[Interval, V](intervalHash, intervalLess),
	}
	return t
}

func (t *IntervalTree[V]) Len() int { return t.values.Len() }

// Insert adds interval -> value. Overlapping intervals are allowed.
func (t *IntervalTree[V]) Insert(iv Interval, value V) {
	t.values.Insert(iv, value)
}

// Delete removes the entry for exactly this interval.
func (t *IntervalTree[V]) Delete(iv Interval) bool {
	return t.values.Delete(iv)
}

// Stab returns every interval (and its value) containing point, in
// ascending-begin order. This scans candidates with begin <= point and
// stops at the first begin > point; it does not prune on end-point, so it
// is O(k) in the number of intervals starting at or before point rather
// than O(log n + hits).
func (t *IntervalTree[V]) Stab(point int64) []struct {
	Interval Interval
	Value    V
} {
	var out []struct {
		Interval Interval
		Value    V
	}
	t.values.Range(func(iv Interval, v V) bool {
		if iv.Begin > point {
			return false
		}
		if iv.contains(point) {
			out = append(out, struct {
				Interval Interval
				Value    V
			}{iv, v})
		}
		return true
	})
	return out
}

// Range calls fn for every (interval, value) pair in ascending-begin order.
func (t *IntervalTree[V]) Range(fn func(iv Interval, value V) bool) {
	t.values.Range(fn)
}
