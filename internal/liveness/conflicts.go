package liveness

import "kefir/internal/ir"

// VariableConflicts partitions a function's OpAllocLocal instructions:
// allocations with no lifetime mark are globally alive and
// conflict with every other globally-alive allocation; allocations with at
// least one lifetime mark are locally alive and conflict only with other
// locally-alive allocations that share a live block.
type VariableConflicts struct {
	GloballyAlive []ir.InstrRef
	LocallyAlive  []ir.InstrRef

	// Conflicts maps a locally-alive allocation to every other
	// locally-alive allocation sharing at least one alive block.
	Conflicts map[ir.InstrRef][]ir.InstrRef
}

// ComputeConflicts walks every OpAllocLocal instruction in fn, classifies
// it by whether any OpLocalLifetimeMark references it, and — for the
// locally-alive set — builds the per-allocation conflict set from l.
func ComputeConflicts(fn *ir.Function, l *Liveness) *VariableConflicts {
	marked := make(map[ir.InstrRef]bool)
	var allocs []ir.InstrRef

	fn.Blocks(func(b ir.BlockRef) bool {
		fn.DefOrder(b, func(ref ir.InstrRef) bool {
			inst, err := fn.Instr(ref)
			if err != nil {
				return true
			}
			if inst.Opcode == ir.OpAllocLocal {
				allocs = append(allocs, ref)
			}
			return true
		})
		fn.ControlOrder(b, func(ref ir.InstrRef) bool {
			inst, err := fn.Instr(ref)
			if err != nil {
				return true
			}
			if inst.Opcode == ir.OpLocalLifetimeMark && len(inst.Operands) > 0 {
				marked[inst.Operands[0]] = true
			}
			return true
		})
		return true
	})

	vc := &VariableConflicts{Conflicts: make(map[ir.InstrRef][]ir.InstrRef)}
	for _, a := range allocs {
		if marked[a] {
			vc.LocallyAlive = append(vc.LocallyAlive, a)
		} else {
			vc.GloballyAlive = append(vc.GloballyAlive, a)
		}
	}

	if len(vc.LocallyAlive) == 0 {
		return vc
	}

	local := make(map[ir.InstrRef]bool, len(vc.LocallyAlive))
	for _, a := range vc.LocallyAlive {
		local[a] = true
	}

	conflictSets := make(map[ir.InstrRef]map[ir.InstrRef]struct{}, len(vc.LocallyAlive))
	for _, a := range vc.LocallyAlive {
		conflictSets[a] = make(map[ir.InstrRef]struct{})
	}

	fn.Blocks(func(b ir.BlockRef) bool {
		var aliveHere []ir.InstrRef
		for _, a := range vc.LocallyAlive {
			if l.IsAlive(a, b) {
				aliveHere = append(aliveHere, a)
			}
		}
		for i, a := range aliveHere {
			for j, other := range aliveHere {
				if i == j {
					continue
				}
				conflictSets[a][other] = struct{}{}
			}
		}
		return true
	})

	for a, set := range conflictSets {
		for other := range set {
			vc.Conflicts[a] = append(vc.Conflicts[a], other)
		}
	}
	return vc
}
