package collections

// HashSet is an open-addressed set, grounded on
// original_source/source/core/hashset.c: it grows when occupancy exceeds a
// ~0.7 load factor or a single insertion probes past a collision budget,
// capacity grows geometrically, and it never shrinks. Iteration order is
// unspecified and callers must not depend on it.
type HashSet[T comparable] struct {
	entries  []hashSlot[T]
	capacity int
	occupied int
	hash     Hasher[T]
}

type slotState uint8

const (
	slotEmpty slotState = iota
	slotOccupied
	slotTombstone
)

type hashSlot[T comparable] struct {
	state slotState
	key   T
}

const (
	hashSetInitialCapacity = 8
	hashSetLoadFactor      = 0.7
	hashSetMaxProbe        = 32 // "tens" of collisions before forcing a grow
)

// NewHashSet constructs an empty set using hash to place entries.
func NewHashSet[T comparable](hash Hasher[T]) *HashSet[T] {
	return &HashSet[T]{hash: hash}
}

func (s *HashSet[T]) Len() int { return s.occupied }

func (s *HashSet[T]) ensureInitialized() {
	if s.capacity == 0 {
		s.capacity = hashSetInitialCapacity
		s.entries = make([]hashSlot[T], s.capacity)
	}
}

// Has reports whether key is a member.
func (s *HashSet[T]) Has(key T) bool {
	if s.capacity == 0 {
		return false
	}
	idx, found := s.probe(key)
	return found && s.entries[idx].state == slotOccupied
}

// probe returns the slot index for key: either the occupied slot holding
// it, or the first empty/tombstone slot on its probe chain.
func (s *HashSet[T]) probe(key T) (int, bool) {
	mask := uint64(s.capacity - 1)
	idx := s.hash(key) & mask
	for i := 0; i < s.capacity; i++ {
		slot := s.entries[idx]
		switch slot.state {
		case slotEmpty:
			return int(idx), false
		case slotOccupied:
			if slot.key == key {
				return int(idx), true
			}
		case slotTombstone:
			// keep probing; a matching key may still appear later
		}
		idx = (idx + 1) & mask
	}
	return int(idx), false
}

// Add inserts key, returning true if it was newly added.
func (s *HashSet[T]) Add(key T) bool {
	s.ensureInitialized()

	if load := float64(s.occupied+1) / float64(s.capacity); load > hashSetLoadFactor {
		s.grow()
	}

	idx, probes := s.insertPosition(key)
	if probes > hashSetMaxProbe {
		s.grow()
		idx, _ = s.insertPosition(key)
	}

	slot := &s.entries[idx]
	if slot.state == slotOccupied && slot.key == key {
		return false
	}
	slot.state = slotOccupied
	slot.key = key
	s.occupied++
	return true
}

// insertPosition finds the slot key belongs in, returning the probe count
// it took to find it.
func (s *HashSet[T]) insertPosition(key T) (int, int) {
	mask := uint64(s.capacity - 1)
	idx := s.hash(key) & mask
	var firstTombstone = -1
	for i := 0; i < s.capacity; i++ {
		slot := s.entries[idx]
		switch slot.state {
		case slotEmpty:
			if firstTombstone >= 0 {
				return firstTombstone, i
			}
			return int(idx), i
		case slotOccupied:
			if slot.key == key {
				return int(idx), i
			}
		case slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = int(idx)
			}
		}
		idx = (idx + 1) & mask
	}
	if firstTombstone >= 0 {
		return firstTombstone, s.capacity
	}
	return int(idx), s.capacity
}

// grow doubles capacity and rehashes every occupied entry. Never shrinks.
func (s *HashSet[T]) grow() {
	old := s.entries
	s.capacity *= 2
	if s.capacity == 0 {
		s.capacity = hashSetInitialCapacity
	}
	s.entries = make([]hashSlot[T], s.capacity)
	s.occupied = 0
	for _, slot := range old {
		if slot.state == slotOccupied {
			idx, _ := s.insertPosition(slot.key)
			s.entries[idx] = hashSlot[T]{state: slotOccupied, key: slot.key}
			s.occupied++
		}
	}
}

// Delete removes key, reporting whether it was present.
func (s *HashSet[T]) Delete(key T) bool {
	if s.capacity == 0 {
		return false
	}
	idx, found := s.probe(key)
	if !found {
		return false
	}
	s.entries[idx] = hashSlot[T]{state: slotTombstone}
	s.occupied--
	return true
}

// Merge adds every member of other to s.
func (s *HashSet[T]) Merge(other *HashSet[T]) {
	other.Range(func(key T) bool {
		s.Add(key)
		return true
	})
}

// Range calls fn for every member in unspecified order, stopping early if
// fn returns false.
func (s *HashSet[T]) Range(fn func(key T) bool) {
	for _, slot := range s.entries {
		if slot.state == slotOccupied {
			if !fn(slot.key) {
				return
			}
		}
	}
}

// Items returns all members in unspecified order.
func (s *HashSet[T]) Items() []T {
	items := make([]T, 0, s.occupied)
	s.Range(func(key T) bool {
		items = append(items, key)
		return true
	})
	return items
}
