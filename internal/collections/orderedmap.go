// Package collections implements the container substrate shared by the
// optimizer: an ordered map (AVL tree keyed by hash then comparator), an
// open-addressed hash set, a sparse ordered "bucket set" of integers, and
// an interval tree for stabbing queries over source/liveness ranges.
//
// None of these containers know about the IR; they are deliberately generic
// so internal/ir, internal/liveness and internal/licm can each pick the one
// whose iteration order and growth behavior fits the job, the way the
// original C core picks hashtree vs hashset vs bucketset per call site.
package collections

// Hasher produces a 64-bit hash for a key. Collisions are broken by Less.
type Hasher[K any] func(K) uint64

// Less defines the secondary, collision-breaking order over keys sharing a
// hash. It must be a strict weak order consistent with equality (Less(a,b)
// and Less(b,a) both false implies a and b are the same key).
type Less[K any] func(a, b K) bool

// OnRemove is invoked exactly once per evicted entry, in whatever order
// eviction visits them.
type OnRemove[K, V any] func(key K, value V)

// OnRelink is invoked whenever a node's parent pointer changes, so that an
// intrusive index built on top of the map (e.g. a sibling-linked list that
// also wants its node's tree position) can repair itself.
type OnRelink[K, V any] func(node *Node[K, V])

// Node is an AVL node keyed by (hash, key). Its parent/child pointers are
// unexported; callers outside the package read a node only through Key and
// Value.
type Node[K, V any] struct {
	hash   uint64
	key    K
	value  V
	height int
	parent *Node[K, V]
	left   *Node[K, V]
	right  *Node[K, V]
}

func (n *Node[K, V]) Key() K   { return n.key }
func (n *Node[K, V]) Value() V { return n.value }

// OrderedMap is a self-balancing (AVL) binary search tree keyed by a hash
// then a user comparator. Height difference between
// sibling subtrees never exceeds 1.
type OrderedMap[K, V any] struct {
	root     *Node[K, V]
	size     int
	hash     Hasher[K]
	less     Less[K]
	onRemove OnRemove[K, V]
	onRelink OnRelink[K, V]
}

// NewOrderedMap constructs an empty map using hash for bucketing and less
// to order keys that hash equal.
func NewOrderedMap[K, V any](hash Hasher[K], less Less[K]) *OrderedMap[K, V] {
	return &OrderedMap[K, V]{hash: hash, less: less}
}

// SetOnRemove registers a hook invoked once per evicted entry (Delete or
// Clear). Passing nil disables the hook.
func (m *OrderedMap[K, V]) SetOnRemove(fn OnRemove[K, V]) { m.onRemove = fn }

// SetOnRelink registers a hook invoked whenever a node's parent pointer is
// rewritten by a rotation or by Delete splicing a node out. Passing nil
// disables the hook.
func (m *OrderedMap[K, V]) SetOnRelink(fn OnRelink[K, V]) { m.onRelink = fn }

func (m *OrderedMap[K, V]) Len() int { return m.size }

func height[K, V any](n *Node[K, V]) int {
	if n == nil {
		return 0
	}
	return n.height + 1
}

func evalHeight[K, V any](n *Node[K, V]) int {
	if n == nil {
		return 0
	}
	l, r := height(n.left), height(n.right)
	if l > r {
		return l
	}
	return r
}

func balanceFactor[K, V any](n *Node[K, V]) int {
	if n == nil {
		return 0
	}
	return height(n.right) - height(n.left)
}

func (m *OrderedMap[K, V]) updateHeight(n *Node[K, V]) {
	if n == nil {
		return
	}
	n.height = evalHeight(n)
}

func (m *OrderedMap[K, V]) relink(n *Node[K, V]) {
	if n == nil {
		return
	}
	if m.onRelink != nil {
		m.onRelink(n)
	}
}

func (m *OrderedMap[K, V]) setChild(parent, old, new *Node[K, V]) {
	if parent == nil {
		if old == m.root {
			m.root = new
		}
		return
	}
	if parent.left == old {
		parent.left = new
	} else if parent.right == old {
		parent.right = new
	}
}

func (m *OrderedMap[K, V]) rotateLeft(root *Node[K, V]) *Node[K, V] {
	newRoot := root.right
	root.right = newRoot.left
	newRoot.left = root

	newRoot.parent = root.parent
	m.setChild(root.parent, root, newRoot)
	root.parent = newRoot
	if root.right != nil {
		root.right.parent = root
	}

	m.updateHeight(root)
	m.updateHeight(newRoot)
	m.relink(root)
	m.relink(newRoot)
	if root.right != nil {
		m.relink(root.right)
	}
	return newRoot
}

func (m *OrderedMap[K, V]) rotateRight(root *Node[K, V]) *Node[K, V] {
	newRoot := root.left
	root.left = newRoot.right
	newRoot.right = root

	newRoot.parent = root.parent
	m.setChild(root.parent, root, newRoot)
	root.parent = newRoot
	if root.left != nil {
		root.left.parent = root
	}

	m.updateHeight(root)
	m.updateHeight(newRoot)
	m.relink(root)
	m.relink(newRoot)
	if root.left != nil {
		m.relink(root.left)
	}
	return newRoot
}

func (m *OrderedMap[K, V]) rebalance(n *Node[K, V]) {
	for n != nil {
		m.updateHeight(n)
		bf := balanceFactor(n)
		parent := n.parent
		switch {
		case bf > 1:
			if balanceFactor(n.right) < 0 {
				n.right = m.rotateRight(n.right)
			}
			n = m.rotateLeft(n)
		case bf < -1:
			if balanceFactor(n.left) > 0 {
				n.left = m.rotateLeft(n.left)
			}
			n = m.rotateRight(n)
		}
		n = parent
	}
}

// cmp orders (hash,key) pairs: hash first, then the user comparator.
func (m *OrderedMap[K, V]) cmp(ah uint64, ak K, bh uint64, bk K) int {
	switch {
	case ah < bh:
		return -1
	case ah > bh:
		return 1
	case m.less(ak, bk):
		return -1
	case m.less(bk, ak):
		return 1
	default:
		return 0
	}
}

func (m *OrderedMap[K, V]) find(key K) (*Node[K, V], int) {
	h := m.hash(key)
	n := m.root
	for n != nil {
		c := m.cmp(h, key, n.hash, n.key)
		switch {
		case c == 0:
			return n, 0
		case c < 0:
			if n.left == nil {
				return n, -1
			}
			n = n.left
		default:
			if n.right == nil {
				return n, 1
			}
			n = n.right
		}
	}
	return nil, 0
}

// Get looks up key, returning (value, true) if present.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	n, dir := m.find(key)
	if n != nil && dir == 0 {
		return n.value, true
	}
	var zero V
	return zero, false
}

// Has reports whether key is present.
func (m *OrderedMap[K, V]) Has(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Insert adds or overwrites key's value. Returns true if key was newly
// inserted, false if an existing entry was overwritten.
func (m *OrderedMap[K, V]) Insert(key K, value V) bool {
	if m.root == nil {
		m.root = &Node[K, V]{hash: m.hash(key), key: key, value: value}
		m.size++
		return true
	}

	parent, dir := m.find(key)
	if dir == 0 {
		parent.value = value
		return false
	}

	h := m.hash(key)
	node := &Node[K, V]{hash: h, key: key, value: value, parent: parent}
	if dir < 0 {
		parent.left = node
	} else {
		parent.right = node
	}
	m.size++
	m.rebalance(parent)
	return true
}

// minNode / maxNode find the in-order extremes of a subtree.
func minNode[K, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

func maxNode[K, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	for n.right != nil {
		n = n.right
	}
	return n
}

// Min returns the smallest key in ascending (hash,key) order.
func (m *OrderedMap[K, V]) Min() (K, V, bool) {
	n := minNode(m.root)
	if n == nil {
		var k K
		var v V
		return k, v, false
	}
	return n.key, n.value, true
}

// Max returns the largest key in ascending (hash,key) order.
func (m *OrderedMap[K, V]) Max() (K, V, bool) {
	n := maxNode(m.root)
	if n == nil {
		var k K
		var v V
		return k, v, false
	}
	return n.key, n.value, true
}

func successor[K, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	if n.right != nil {
		return minNode(n.right)
	}
	p := n.parent
	for p != nil && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func predecessor[K, V any](n *Node[K, V]) *Node[K, V] {
	if n == nil {
		return nil
	}
	if n.left != nil {
		return maxNode(n.left)
	}
	p := n.parent
	for p != nil && n == p.left {
		n = p
		p = p.parent
	}
	return p
}

// LowerBound returns the smallest entry with key >= the given key.
func (m *OrderedMap[K, V]) LowerBound(key K) (K, V, bool) {
	h := m.hash(key)
	n := m.root
	var candidate *Node[K, V]
	for n != nil {
		if m.cmp(h, key, n.hash, n.key) <= 0 {
			candidate = n
			n = n.left
		} else {
			n = n.right
		}
	}
	if candidate == nil {
		var k K
		var v V
		return k, v, false
	}
	return candidate.key, candidate.value, true
}

// UpperBound returns the smallest entry with key > the given key.
func (m *OrderedMap[K, V]) UpperBound(key K) (K, V, bool) {
	h := m.hash(key)
	n := m.root
	var candidate *Node[K, V]
	for n != nil {
		if m.cmp(h, key, n.hash, n.key) < 0 {
			candidate = n
			n = n.left
		} else {
			n = n.right
		}
	}
	if candidate == nil {
		var k K
		var v V
		return k, v, false
	}
	return candidate.key, candidate.value, true
}

// Delete removes key, invoking the on-remove hook if registered. Reports
// whether the key was present.
func (m *OrderedMap[K, V]) Delete(key K) bool {
	n, dir := m.find(key)
	if n == nil || dir != 0 {
		return false
	}

	removedKey, removedValue := n.key, n.value

	if n.left != nil && n.right != nil {
		succ := minNode(n.right)
		n.key, n.hash, n.value = succ.key, succ.hash, succ.value
		n = succ
	}

	child := n.left
	if child == nil {
		child = n.right
	}
	parent := n.parent
	m.setChild(parent, n, child)
	if child != nil {
		child.parent = parent
		m.relink(child)
	}
	if n == m.root {
		m.root = child
	}
	m.size--

	m.rebalance(parent)

	if m.onRemove != nil {
		m.onRemove(removedKey, removedValue)
	}
	return true
}

// Clear empties the map, invoking the on-remove hook for every entry in
// ascending order.
func (m *OrderedMap[K, V]) Clear() {
	for m.root != nil {
		n := minNode(m.root)
		m.Delete(n.key)
	}
}

// Range calls fn for every entry in ascending (hash,key) order, stopping
// early if fn returns false.
func (m *OrderedMap[K, V]) Range(fn func(key K, value V) bool) {
	n := minNode(m.root)
	for n != nil {
		if !fn(n.key, n.value) {
			return
		}
		n = successor(n)
	}
}

// Keys returns all keys in ascending order.
func (m *OrderedMap[K, V]) Keys() []K {
	keys := make([]K, 0, m.size)
	m.Range(func(k K, _ V) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}
