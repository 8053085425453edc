// Package loopnest discovers natural loops and organizes them into a
// nesting forest. This is component E: it borrows a
// built internal/cfg.Graph and must be rediscovered after any IR mutation
// that changes the CFG.
package loopnest

import "kefir/internal/ir"

// Graph is the minimal view loopnest needs from internal/cfg, so this
// package does not import it directly and stays usable against any
// structure satisfying the interface (e.g. a test double).
type Graph interface {
	Successors(b ir.BlockRef) []ir.BlockRef
	Predecessors(b ir.BlockRef) []ir.BlockRef
	Dominates(a, b ir.BlockRef) bool
	Reachable(b ir.BlockRef) bool
	ReversePostorder() []ir.BlockRef
}

// ID identifies a natural loop by its (header, tail) back-edge, packed as
// (header << 32) | tail.
type ID uint64

func makeID(header, tail ir.BlockRef) ID {
	return ID(uint64(header)<<32 | uint64(tail))
}

// Header returns the loop header block this ID encodes.
func (id ID) Header() ir.BlockRef { return ir.BlockRef(uint64(id) >> 32) }

// Tail returns the back-edge source block this ID encodes.
func (id ID) Tail() ir.BlockRef { return ir.BlockRef(uint64(id) & 0xffffffff) }

// Loop is one natural loop: the back-edge that defines it, plus every
// block reachable backward from the tail without passing outside the
// header's dominance (the loop body).
type Loop struct {
	ID     ID
	Header ir.BlockRef
	Tail   ir.BlockRef
	Body   map[ir.BlockRef]bool

	Parent   *Loop
	Children []*Loop
}

// Nest is the forest of discovered loops, with Roots holding the outermost
// loops (those with no enclosing loop).
type Nest struct {
	Loops map[ID]*Loop
	Roots []*Loop
}

// Discover finds every natural loop in g: for every reachable block B and
// every successor S of B, if S dominates B, the edge B -> S is a back-edge
// and yields the loop with header S and tail B. It then assembles the
// nesting forest.
func Discover(g Graph) *Nest {
	n := &Nest{Loops: make(map[ID]*Loop)}

	for _, b := range g.ReversePostorder() {
		if !g.Reachable(b) {
			continue
		}
		for _, s := range g.Successors(b) {
			if g.Dominates(s, b) {
				loop := buildLoop(g, s, b)
				n.Loops[loop.ID] = loop
			}
		}
	}

	for _, loop := range n.Loops {
		n.insert(loop)
	}
	return n
}

// buildLoop computes a loop's body via backward BFS from the tail, stopping
// at the header and recording every visited block.
func buildLoop(g Graph, header, tail ir.BlockRef) *Loop {
	body := map[ir.BlockRef]bool{header: true, tail: true}
	worklist := []ir.BlockRef{tail}
	for len(worklist) > 0 {
		b := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		if b == header {
			continue
		}
		for _, p := range g.Predecessors(b) {
			if !body[p] {
				body[p] = true
				worklist = append(worklist, p)
			}
		}
	}
	return &Loop{ID: makeID(header, tail), Header: header, Tail: tail, Body: body}
}

// insert places loop into the forest: as a child of the smallest enclosing
// loop, or — if loop itself encloses an existing root — re-parents that
// root under loop: for each loop, find the
// smallest enclosing node by iterating existing nests and descending into
// children").
func (n *Nest) insert(loop *Loop) {
	var parent *Loop
	siblings := n.Roots
	for {
		var next *Loop
		for _, candidate := range siblings {
			if candidate != loop && encloses(candidate, loop) {
				next = candidate
				break
			}
		}
		if next == nil {
			break
		}
		parent = next
		siblings = next.Children
	}

	if parent != nil {
		var kept []*Loop
		for _, sibling := range parent.Children {
			if sibling != loop && encloses(loop, sibling) {
				sibling.Parent = loop
				loop.Children = append(loop.Children, sibling)
			} else {
				kept = append(kept, sibling)
			}
		}
		parent.Children = append(kept, loop)
		loop.Parent = parent
		return
	}

	// No enclosing loop found among current roots: loop is a root, possibly
	// absorbing existing roots it encloses.
	var kept []*Loop
	for _, root := range n.Roots {
		if root != loop && encloses(loop, root) {
			root.Parent = loop
			loop.Children = append(loop.Children, root)
		} else {
			kept = append(kept, root)
		}
	}
	n.Roots = append(kept, loop)
}

// encloses reports whether outer's body contains inner's header and tail:
// L2 is inside L1 iff L2's header and tail both lie in L1's body.
func encloses(outer, inner *Loop) bool {
	if outer == inner {
		return false
	}
	return outer.Body[inner.Header] && outer.Body[inner.Tail]
}
