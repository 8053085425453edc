// Package liveness implements the backward data-flow liveness analysis and
// the ALLOC_LOCAL variable-conflict partition. It borrows a read-only view
// of an internal/ir.Function and a built internal/cfg.Graph and must be
// rebuilt after either changes: analyses are owned externally and
// invalidated by any IR mutation.
package liveness

import (
	"kefir/internal/cfg"
	"kefir/internal/ir"
)

type instrSet map[ir.InstrRef]struct{}

func (s instrSet) has(r ir.InstrRef) bool { _, ok := s[r]; return ok }
func (s instrSet) add(r ir.InstrRef)      { s[r] = struct{}{} }

// Liveness holds, for every reachable block, the set of InstrRefs alive at
// the block's entry (LiveIn) and exit (LiveOut) boundary.
type Liveness struct {
	fn      *ir.Function
	liveIn  map[ir.BlockRef]instrSet
	liveOut map[ir.BlockRef]instrSet
}

// Compute runs the backward fixpoint:
//
//	live_out[B] = (U_{S in succ(B)} live_in[S] \ phi_defs(S)) U {phi incoming from B}
//	live_in[B]  = use[B] U (live_out[B] \ def[B])
//
// over every block g reports as reachable, iterating to a fixpoint that
// converges in O(blocks x uses).
func Compute(fn *ir.Function, g *cfg.Graph) *Liveness {
	l := &Liveness{
		fn:      fn,
		liveIn:  make(map[ir.BlockRef]instrSet),
		liveOut: make(map[ir.BlockRef]instrSet),
	}

	blocks := g.ReversePostorder()
	defSet := make(map[ir.BlockRef]instrSet, len(blocks))
	useSet := make(map[ir.BlockRef]instrSet, len(blocks))
	phiDefs := make(map[ir.BlockRef]instrSet, len(blocks))
	phiIncomingFrom := make(map[ir.BlockRef]instrSet, len(blocks))

	for _, b := range blocks {
		defSet[b] = instrSet{}
		useSet[b] = instrSet{}
		phiDefs[b] = instrSet{}
		phiIncomingFrom[b] = instrSet{}
		l.liveIn[b] = instrSet{}
		l.liveOut[b] = instrSet{}
	}

	for _, b := range blocks {
		fn.DefOrder(b, func(ref ir.InstrRef) bool {
			defSet[b].add(ref)
			return true
		})
		fn.PhiOrder(b, func(p ir.PhiRef) bool {
			phi, err := fn.Phi(p)
			if err != nil {
				return true
			}
			phiDefs[b].add(phi.Output)
			return true
		})
		fn.DefOrder(b, func(ref ir.InstrRef) bool {
			inst, err := fn.Instr(ref)
			if err != nil || inst.Opcode == ir.OpPhi {
				return true
			}
			for _, op := range inst.Operands {
				opInst, err := fn.Instr(op)
				if err != nil {
					continue
				}
				if opInst.Block != b {
					useSet[b].add(op)
				}
			}
			return true
		})
	}

	for _, b := range blocks {
		for _, s := range g.Successors(b) {
			fn.PhiOrder(s, func(p ir.PhiRef) bool {
				phi, err := fn.Phi(p)
				if err != nil {
					return true
				}
				if v, ok := phi.Incoming[b]; ok {
					phiIncomingFrom[b].add(v)
				}
				return true
			})
		}
	}

	changed := true
	for changed {
		changed = false
		for i := len(blocks) - 1; i >= 0; i-- {
			b := blocks[i]
			out := instrSet{}
			for _, s := range g.Successors(b) {
				for ref := range l.liveIn[s] {
					if !phiDefs[s].has(ref) {
						out.add(ref)
					}
				}
			}
			for ref := range phiIncomingFrom[b] {
				out.add(ref)
			}

			in := instrSet{}
			for ref := range useSet[b] {
				in.add(ref)
			}
			for ref := range out {
				if !defSet[b].has(ref) {
					in.add(ref)
				}
			}

			if !setEqual(out, l.liveOut[b]) || !setEqual(in, l.liveIn[b]) {
				l.liveOut[b] = out
				l.liveIn[b] = in
				changed = true
			}
		}
	}

	return l
}

func setEqual(a, b instrSet) bool {
	if len(a) != len(b) {
		return false
	}
	for ref := range a {
		if !b.has(ref) {
			return false
		}
	}
	return true
}

// IsAlive reports whether instr is alive somewhere at block's boundary
// (either entering or leaving it).
func (l *Liveness) IsAlive(instr ir.InstrRef, block ir.BlockRef) bool {
	if in, ok := l.liveIn[block]; ok && in.has(instr) {
		return true
	}
	if out, ok := l.liveOut[block]; ok && out.has(instr) {
		return true
	}
	return false
}

// LiveIn returns the InstrRefs alive entering block, in unspecified order.
func (l *Liveness) LiveIn(block ir.BlockRef) []ir.InstrRef { return keys(l.liveIn[block]) }

// LiveOut returns the InstrRefs alive leaving block, in unspecified order.
func (l *Liveness) LiveOut(block ir.BlockRef) []ir.InstrRef { return keys(l.liveOut[block]) }

func keys(s instrSet) []ir.InstrRef {
	out := make([]ir.InstrRef, 0, len(s))
	for ref := range s {
		out = append(out, ref)
	}
	return out
}
