package licm

import (
	"sort"

	"kefir/internal/diagnostics"
	"kefir/internal/ir"
	"kefir/internal/loopnest"
)

func sortedBlocks(body map[ir.BlockRef]bool) []ir.BlockRef {
	out := make([]ir.BlockRef, 0, len(body))
	for b := range body {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// collectHoistCandidates runs the fixpoint: an
// instruction is processed once every operand is either outside the loop
// or already processed, phis are processed unconditionally, and a
// processed, side-effect-free, non-control-flow instruction whose operands
// are all non-loop-local (outside the loop, or themselves candidates)
// becomes a hoist candidate.
func collectHoistCandidates(fn *ir.Function, loop *loopnest.Loop) map[ir.InstrRef]bool {
	blocks := sortedBlocks(loop.Body)
	processed := make(map[ir.InstrRef]bool)
	candidates := make(map[ir.InstrRef]bool)

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			fn.DefOrder(b, func(ref ir.InstrRef) bool {
				if processed[ref] {
					return true
				}
				inst, err := fn.Instr(ref)
				if err != nil {
					return true
				}
				if inst.Opcode == ir.OpPhi {
					processed[ref] = true
					changed = true
					return true
				}

				for _, op := range inst.Operands {
					opInst, err := fn.Instr(op)
					if err != nil {
						continue
					}
					if loop.Body[opInst.Block] && !processed[op] {
						return true // not ready yet
					}
				}
				processed[ref] = true
				changed = true

				allOutside := true
				for _, op := range inst.Operands {
					opInst, err := fn.Instr(op)
					if err != nil {
						continue
					}
					if loop.Body[opInst.Block] && !candidates[op] {
						allOutside = false
						break
					}
				}
				if allOutside && ir.IsSideEffectFree(inst.Opcode) && !ir.IsControlFlow(inst.Opcode) {
					candidates[ref] = true
				}
				return true
			})
		}
	}
	return candidates
}

// hoistCandidates drains candidates into pre via a FIFO worklist over
// instruction references in their current definition order, to keep
// hoist order deterministic, relocating an instruction only once every operand is
// already outside the loop or itself hoisted. Constants, placeholders and
// extension ops are unconditionally safe (IsSafeHoistableConstant); every
// other side-effect-free opcode reaching here already passed the same
// operand-readiness fixpoint, which stands in for a more general
// structure-analysis check confirming it may legally move.
func hoistCandidates(fn *ir.Function, loop *loopnest.Loop, candidates map[ir.InstrRef]bool, pre ir.BlockRef) (int, error) {
	blocks := sortedBlocks(loop.Body)
	var worklist []ir.InstrRef
	for _, b := range blocks {
		fn.DefOrder(b, func(ref ir.InstrRef) bool {
			if candidates[ref] {
				worklist = append(worklist, ref)
			}
			return true
		})
	}

	hoisted := make(map[ir.InstrRef]bool, len(worklist))
	count := 0
	maxRounds := len(worklist)*len(worklist) + 16

	for rounds := 0; len(worklist) > 0; rounds++ {
		if rounds > maxRounds {
			return count, diagnostics.New(diagnostics.InternalError, "hoist worklist did not converge for loop %d", loop.ID)
		}
		ref := worklist[0]
		worklist = worklist[1:]
		if hoisted[ref] {
			continue
		}
		inst, err := fn.Instr(ref)
		if err != nil {
			continue
		}

		ready := true
		for _, op := range inst.Operands {
			opInst, err := fn.Instr(op)
			if err != nil {
				continue
			}
			if loop.Body[opInst.Block] && !hoisted[op] {
				ready = false
				break
			}
		}
		if !ready {
			worklist = append(worklist, ref)
			continue
		}

		if err := fn.Relocate(ref, pre); err != nil {
			return count, err
		}
		hoisted[ref] = true
		count++
	}
	return count, nil
}
