// Package cfg builds the control-flow structure:
// predecessors derived from scanning terminators, iterative dominator
// computation, and dominance-frontier queries for SSA construction. This is
// component C — a read-only snapshot over an internal/ir.Function that the
// caller must rebuild after any mutation that changes successors or the
// block set.
package cfg

import (
	"kefir/internal/diagnostics"
	"kefir/internal/ir"
)

// Graph is a built control-flow snapshot of one function. It is immutable
// once returned by Build; mutate the underlying ir.Function and call Build
// again to refresh it.
type Graph struct {
	fn *ir.Function

	preds map[ir.BlockRef][]ir.BlockRef
	succs map[ir.BlockRef][]ir.BlockRef

	// rpo is the entry-reachable blocks in reverse postorder. Blocks absent
	// from rpo are unreachable.
	rpo   []ir.BlockRef
	index map[ir.BlockRef]int // position within rpo

	idom  map[ir.BlockRef]ir.BlockRef
	depth map[ir.BlockRef]int
}

// Build scans fn's terminators to derive predecessor/successor edges, then
// computes dominators via the iterative worklist algorithm (Cooper,
// Harvey & Kennedy 2001), the standard form used here.
func Build(fn *ir.Function) (*Graph, error) {
	g := &Graph{
		fn:    fn,
		preds: make(map[ir.BlockRef][]ir.BlockRef),
		succs: make(map[ir.BlockRef][]ir.BlockRef),
	}

	fn.Blocks(func(b ir.BlockRef) bool {
		g.preds[b] = nil
		g.succs[b] = nil
		return true
	})

	var scanErr error
	fn.Blocks(func(b ir.BlockRef) bool {
		succs, err := fn.Successors(b)
		if err != nil {
			if diagnostics.KindOf(err) == diagnostics.NotFound {
				// Block not yet finalized with a terminator; treat as no
				// successors rather than failing the whole build.
				return true
			}
			scanErr = err
			return false
		}
		g.succs[b] = append(g.succs[b], succs...)
		for _, s := range succs {
			g.preds[s] = append(g.preds[s], b)
		}
		return true
	})
	if scanErr != nil {
		return nil, scanErr
	}

	entry := fn.Entry()
	if entry == ir.NoBlock {
		return g, nil
	}
	g.computeRPO(entry)
	g.computeDominators(entry)
	g.computeDepths(entry)
	return g, nil
}

func (g *Graph) computeRPO(entry ir.BlockRef) {
	visited := make(map[ir.BlockRef]bool)
	var postorder []ir.BlockRef

	var visit func(b ir.BlockRef)
	visit = func(b ir.BlockRef) {
		if visited[b] {
			return
		}
		visited[b] = true
		for _, s := range g.succs[b] {
			visit(s)
		}
		postorder = append(postorder, b)
	}
	visit(entry)

	g.rpo = make([]ir.BlockRef, len(postorder))
	for i, b := range postorder {
		g.rpo[len(postorder)-1-i] = b
	}
	g.index = make(map[ir.BlockRef]int, len(g.rpo))
	for i, b := range g.rpo {
		g.index[b] = i
	}
}

// computeDominators runs the standard iterative worklist fixpoint:
// idom[entry] = entry, and every other reachable block's dominator is the
// intersection (in the dominator-tree sense) of its predecessors' current
// idom estimates, processed in reverse-postorder until no idom changes.
func (g *Graph) computeDominators(entry ir.BlockRef) {
	g.idom = make(map[ir.BlockRef]ir.BlockRef, len(g.rpo))
	g.idom[entry] = entry

	changed := true
	for changed {
		changed = false
		for _, b := range g.rpo {
			if b == entry {
				continue
			}
			var newIdom ir.BlockRef
			found := false
			for _, p := range g.preds[b] {
				if _, ok := g.idom[p]; !ok {
					continue // predecessor not processed yet this pass
				}
				if !found {
					newIdom = p
					found = true
					continue
				}
				newIdom = g.intersect(newIdom, p)
			}
			if !found {
				continue
			}
			if cur, ok := g.idom[b]; !ok || cur != newIdom {
				g.idom[b] = newIdom
				changed = true
			}
		}
	}
}

// intersect walks both candidates up the (partially built) dominator tree
// until they meet, using reverse-postorder index as the tree-depth proxy
// (standard CHK trick: a lower rpo index is always closer to the entry).
func (g *Graph) intersect(a, b ir.BlockRef) ir.BlockRef {
	for a != b {
		for g.index[a] > g.index[b] {
			a = g.idom[a]
		}
		for g.index[b] > g.index[a] {
			b = g.idom[b]
		}
	}
	return a
}

func (g *Graph) computeDepths(entry ir.BlockRef) {
	g.depth = make(map[ir.BlockRef]int, len(g.rpo))
	g.depth[entry] = 0
	for _, b := range g.rpo {
		if b == entry {
			continue
		}
		idom, ok := g.idom[b]
		if !ok {
			continue
		}
		g.depth[b] = g.depth[idom] + 1
	}
}

// Predecessors returns b's predecessor blocks, in the order their
// terminators were scanned.
func (g *Graph) Predecessors(b ir.BlockRef) []ir.BlockRef { return g.preds[b] }

// Successors returns b's successor blocks.
func (g *Graph) Successors(b ir.BlockRef) []ir.BlockRef { return g.succs[b] }

// Reachable reports whether b was reached from the entry block during
// Build.
func (g *Graph) Reachable(b ir.BlockRef) bool {
	_, ok := g.idom[b]
	return ok
}

// ReversePostorder returns every entry-reachable block in reverse
// postorder.
func (g *Graph) ReversePostorder() []ir.BlockRef { return g.rpo }

// ImmediateDominator returns b's immediate dominator. Reports
// diagnostics.NotFound for an unreachable block: unreachable
// blocks are those for which immediate_dominator is undefined.
func (g *Graph) ImmediateDominator(b ir.BlockRef) (ir.BlockRef, error) {
	idom, ok := g.idom[b]
	if !ok {
		return ir.NoBlock, diagnostics.New(diagnostics.NotFound, "block %d is unreachable; no immediate dominator", b)
	}
	return idom, nil
}

// Depth returns b's dominance-tree depth (entry is 0).
func (g *Graph) Depth(b ir.BlockRef) (int, error) {
	if _, ok := g.idom[b]; !ok {
		return 0, diagnostics.New(diagnostics.NotFound, "block %d is unreachable; no dominance depth", b)
	}
	return g.depth[b], nil
}

// Dominates reports whether a dominates b (every path from entry to b
// passes through a), including the reflexive case a == b.
func (g *Graph) Dominates(a, b ir.BlockRef) bool {
	if _, ok := g.idom[b]; !ok {
		return false
	}
	for {
		if b == a {
			return true
		}
		idom, ok := g.idom[b]
		if !ok || idom == b {
			return b == a
		}
		b = idom
	}
}

// DominanceFrontier returns the dominance frontier of b: every reachable
// block X such that b dominates a predecessor of X but b does not strictly
// dominate X itself (the standard definition used to place phi nodes during
// SSA construction via dominance-frontier iteration).
func (g *Graph) DominanceFrontier(b ir.BlockRef) []ir.BlockRef {
	var out []ir.BlockRef
	seen := make(map[ir.BlockRef]bool)
	for _, x := range g.rpo {
		for _, p := range g.preds[x] {
			if !g.Reachable(p) {
				continue
			}
			if g.Dominates(b, p) && !g.strictlyDominates(b, x) {
				if !seen[x] {
					seen[x] = true
					out = append(out, x)
				}
			}
		}
	}
	return out
}

func (g *Graph) strictlyDominates(a, b ir.BlockRef) bool {
	return a != b && g.Dominates(a, b)
}
