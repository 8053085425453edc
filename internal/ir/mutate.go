package ir

import (
	"kefir/internal/collections"
	"kefir/internal/diagnostics"
)

// NewBlock appends a fresh, empty block to fn and returns its handle. The
// first block created becomes the function's one designated entry block.
func (fn *Function) NewBlock() BlockRef {
	id := BlockRef(len(fn.blocks))
	fn.blocks = append(fn.blocks, Block{
		ID:       id,
		defHead:  NoInstr, defTail: NoInstr,
		ctrlHead: NoInstr, ctrlTail: NoInstr,
		phiHead: NoPhi, phiTail: NoPhi,
	})
	if fn.entry == NoBlock {
		fn.entry = id
	}
	return id
}

func (fn *Function) block(ref BlockRef) (*Block, error) {
	if int(ref) >= len(fn.blocks) {
		return nil, diagnostics.New(diagnostics.OutOfBounds, "block %d out of range", ref)
	}
	return &fn.blocks[ref], nil
}

func (fn *Function) instr(ref InstrRef) (*Instruction, error) {
	if int(ref) >= len(fn.instrs) {
		return nil, diagnostics.New(diagnostics.OutOfBounds, "instruction %d out of range", ref)
	}
	if fn.dropped.Has(uint64(ref)) {
		return nil, diagnostics.New(diagnostics.NotFound, "instruction %d has been dropped", ref)
	}
	return &fn.instrs[ref], nil
}

// AppendInstruction allocates a new instruction in blockRef, linking it at
// the tail of definition order and — when its opcode carries control order
// (HasControlOrder) — at the tail of control order too.
func (fn *Function) AppendInstruction(blockRef BlockRef, op Opcode, operands []InstrRef, imm Immediate) (InstrRef, error) {
	b, err := fn.block(blockRef)
	if err != nil {
		return NoInstr, err
	}
	if b.ctrlTail != NoInstr && IsControlFlow(fn.instrs[b.ctrlTail].Opcode) {
		return NoInstr, diagnostics.New(diagnostics.InvalidState, "block %d already has a control terminator", blockRef)
	}

	id := InstrRef(len(fn.instrs))
	inst := Instruction{
		ID: id, Block: blockRef, Opcode: op,
		Operands: append([]InstrRef(nil), operands...),
		Imm:      imm,
		PhiRef:   NoPhi,
		defPrev:  b.defTail, defNext: NoInstr,
		ctrlPrev: NoInstr, ctrlNext: NoInstr,
	}
	fn.instrs = append(fn.instrs, inst)

	if b.defTail == NoInstr {
		b.defHead = id
	} else {
		fn.instrs[b.defTail].defNext = id
	}
	b.defTail = id

	if HasControlOrder(op) {
		inst2 := &fn.instrs[id]
		inst2.ctrlPrev = b.ctrlTail
		if b.ctrlTail == NoInstr {
			b.ctrlHead = id
		} else {
			fn.instrs[b.ctrlTail].ctrlNext = id
		}
		b.ctrlTail = id
	}

	for _, operand := range operands {
		fn.addUse(operand, Use{Instr: id})
	}
	return id, nil
}

// NewPhi creates an empty phi node in blockRef (no incoming edges yet) and
// its output instruction (Opcode == OpPhi, in definition order only — a phi
// has no control-order position since it is not evaluated at a program
// point).
func (fn *Function) NewPhi(blockRef BlockRef) (PhiRef, InstrRef, error) {
	b, err := fn.block(blockRef)
	if err != nil {
		return NoPhi, NoInstr, err
	}

	outID := InstrRef(len(fn.instrs))
	fn.instrs = append(fn.instrs, Instruction{
		ID: outID, Block: blockRef, Opcode: OpPhi,
		defPrev: b.defTail, defNext: NoInstr,
		ctrlPrev: NoInstr, ctrlNext: NoInstr,
	})
	if b.defTail == NoInstr {
		b.defHead = outID
	} else {
		fn.instrs[b.defTail].defNext = outID
	}
	b.defTail = outID

	phiID := PhiRef(len(fn.phis))
	fn.phis = append(fn.phis, Phi{
		ID: phiID, Block: blockRef, Output: outID,
		Incoming: make(map[BlockRef]InstrRef),
		sibPrev:  b.phiTail, sibNext: NoPhi,
	})
	if b.phiTail == NoPhi {
		b.phiHead = phiID
	} else {
		fn.phis[b.phiTail].sibNext = phiID
	}
	b.phiTail = phiID

	fn.instrs[outID].PhiRef = phiID
	return phiID, outID, nil
}

// AttachPhi records that phiRef receives value from pred when control
// arrives via that predecessor. Re-attaching the same predecessor
// overwrites the prior incoming value and removes the prior use edge.
func (fn *Function) AttachPhi(phiRef PhiRef, pred BlockRef, value InstrRef) error {
	if int(phiRef) >= len(fn.phis) {
		return diagnostics.New(diagnostics.OutOfBounds, "phi %d out of range", phiRef)
	}
	phi := &fn.phis[phiRef]
	if old, ok := phi.Incoming[pred]; ok {
		fn.removeUse(old, Use{IsPhi: true, Phi: phiRef, Pred: pred})
	}
	phi.Incoming[pred] = value
	fn.addUse(value, Use{IsPhi: true, Phi: phiRef, Pred: pred})
	return nil
}

// addUse / removeUse maintain the use-list index keyed by the used
// InstrRef, so ReplaceReferences and DropInstr never scan the IR. They also
// keep the debug-info local-reference index (internal/ir/debuginfo.go)
// current: a plain instruction operand edge onto an ALLOC_LOCAL is recorded
// there too.
func (fn *Function) addUse(used InstrRef, u Use) {
	m, ok := fn.uses[used]
	if !ok {
		m = collections.NewOrderedMap[uint64, Use](identityHash, lessUint64)
		fn.uses[used] = m
	}
	m.Insert(hashUse(u), u)

	if !u.IsPhi {
		if inst, err := fn.instr(used); err == nil && inst.Opcode == OpAllocLocal {
			fn.debug.addLocalReference(used, u.Instr)
		}
	}
}

func (fn *Function) removeUse(used InstrRef, u Use) {
	if m, ok := fn.uses[used]; ok {
		m.Delete(hashUse(u))
	}

	if !u.IsPhi {
		if inst, err := fn.instr(used); err == nil && inst.Opcode == OpAllocLocal {
			fn.debug.removeLocalReference(used, u.Instr)
		}
	}
}

func lessUint64(a, b uint64) bool { return a < b }

// UseCount reports how many use edges reach ref.
func (fn *Function) UseCount(ref InstrRef) int {
	if m, ok := fn.uses[ref]; ok {
		return m.Len()
	}
	return 0
}

// Uses iterates every use edge reaching ref, stopping early if fn returns
// false.
func (f *Function) Uses(ref InstrRef, yield func(Use) bool) {
	m, ok := f.uses[ref]
	if !ok {
		return
	}
	m.Range(func(_ uint64, u Use) bool { return yield(u) })
}

// ReplaceReferences rewrites every use of oldRef to use newRef instead,
// moving use-list entries across and leaving oldRef with zero uses. Any
// debug-info annotation attached to oldRef (declared name, a
// single-instruction source range, or — if oldRef was itself an
// ALLOC_LOCAL — its referencing-instruction set) is carried over to newRef
// too, so a dropped/replaced instruction's debug metadata is not orphaned.
func (fn *Function) ReplaceReferences(oldRef, newRef InstrRef) error {
	if _, err := fn.instr(newRef); err != nil {
		return err
	}
	fn.debug.migrate(oldRef, newRef)
	m, ok := fn.uses[oldRef]
	if !ok {
		return nil
	}
	var edges []Use
	m.Range(func(_ uint64, u Use) bool {
		edges = append(edges, u)
		return true
	})
	for _, u := range edges {
		if u.IsPhi {
			phi := &fn.phis[u.Phi]
			phi.Incoming[u.Pred] = newRef
		} else {
			inst, err := fn.instr(u.Instr)
			if err != nil {
				continue // user itself was dropped; its use edge is stale
			}
			for i, op := range inst.Operands {
				if op == oldRef {
					inst.Operands[i] = newRef
				}
			}
		}
		fn.addUse(newRef, u)
	}
	delete(fn.uses, oldRef)
	return nil
}

// DropInstr retires ref: it is unlinked from definition and control order
// and marked dropped, and its own use edges (on its operands) are removed.
// Any debug-info annotation still attached directly to ref is discarded —
// callers that need it to survive call ReplaceReferences first, which
// migrates it onto the replacement. ref must have no remaining users —
// callers that want to hoist/replace first should call ReplaceReferences.
func (fn *Function) DropInstr(ref InstrRef) error {
	inst, err := fn.instr(ref)
	if err != nil {
		return err
	}
	if fn.UseCount(ref) > 0 {
		return diagnostics.New(diagnostics.InvalidState, "instruction %d still has uses", ref)
	}
	fn.debug.purge(ref)

	b, err := fn.block(inst.Block)
	if err != nil {
		return err
	}

	if inst.defPrev != NoInstr {
		fn.instrs[inst.defPrev].defNext = inst.defNext
	} else {
		b.defHead = inst.defNext
	}
	if inst.defNext != NoInstr {
		fn.instrs[inst.defNext].defPrev = inst.defPrev
	} else {
		b.defTail = inst.defPrev
	}

	if HasControlOrder(inst.Opcode) {
		if inst.ctrlPrev != NoInstr {
			fn.instrs[inst.ctrlPrev].ctrlNext = inst.ctrlNext
		} else {
			b.ctrlHead = inst.ctrlNext
		}
		if inst.ctrlNext != NoInstr {
			fn.instrs[inst.ctrlNext].ctrlPrev = inst.ctrlPrev
		} else {
			b.ctrlTail = inst.ctrlPrev
		}
	}

	for _, operand := range inst.Operands {
		fn.removeUse(operand, Use{Instr: ref})
	}
	delete(fn.uses, ref)
	fn.dropped.Add(uint64(ref))

	if inst.Opcode == OpPhi && inst.PhiRef != NoPhi {
		fn.unlinkPhi(b, inst.PhiRef)
	}
	return nil
}

// unlinkPhi removes phiRef from its block's phi sibling list. The Phi
// struct itself is left in the arena (PhiRef handles are never reused) but
// is no longer reachable via PhiOrder.
func (fn *Function) unlinkPhi(b *Block, phiRef PhiRef) {
	phi := &fn.phis[phiRef]
	if phi.sibPrev != NoPhi {
		fn.phis[phi.sibPrev].sibNext = phi.sibNext
	} else {
		b.phiHead = phi.sibNext
	}
	if phi.sibNext != NoPhi {
		fn.phis[phi.sibNext].sibPrev = phi.sibPrev
	} else {
		b.phiTail = phi.sibPrev
	}
}

// Relocate moves a definition-order-only instruction (one with no control
// order — HasControlOrder(opcode) is false) from its current block to
// target, appending it at the tail of target's definition order. This is
// the primitive LICM hoisting uses to move a hoist candidate into a loop
// pre-header; instructions that carry control order can
// never be hoisted (they are excluded from IsSideEffectFree) so this
// rejects them outright rather than silently reordering side effects.
func (fn *Function) Relocate(ref InstrRef, target BlockRef) error {
	inst, err := fn.instr(ref)
	if err != nil {
		return err
	}
	if HasControlOrder(inst.Opcode) {
		return diagnostics.New(diagnostics.InvalidState, "instruction %d carries control order and cannot be relocated", ref)
	}
	targetBlock, err := fn.block(target)
	if err != nil {
		return err
	}
	srcBlock, err := fn.block(inst.Block)
	if err != nil {
		return err
	}

	if inst.defPrev != NoInstr {
		fn.instrs[inst.defPrev].defNext = inst.defNext
	} else {
		srcBlock.defHead = inst.defNext
	}
	if inst.defNext != NoInstr {
		fn.instrs[inst.defNext].defPrev = inst.defPrev
	} else {
		srcBlock.defTail = inst.defPrev
	}

	inst.Block = target
	inst.defPrev = targetBlock.defTail
	inst.defNext = NoInstr
	if targetBlock.defTail == NoInstr {
		targetBlock.defHead = ref
	} else {
		fn.instrs[targetBlock.defTail].defNext = ref
	}
	targetBlock.defTail = ref
	return nil
}

// ReplaceControlFlowTarget rewrites the target block of blockRef's
// terminator from oldTarget to newTarget, atomically: if blockRef's
// terminator is a branch with both arms equal to oldTarget, both are
// rewritten together, grounded on original_source's
// replace_control_flow_target, which must update every
// matching arm in one pass rather than leaving a branch half-rewritten).
func (fn *Function) ReplaceControlFlowTarget(blockRef BlockRef, oldTarget, newTarget BlockRef) error {
	b, err := fn.block(blockRef)
	if err != nil {
		return err
	}
	if b.ctrlTail == NoInstr {
		return diagnostics.New(diagnostics.InvalidState, "block %d has no terminator", blockRef)
	}
	term, err := fn.instr(b.ctrlTail)
	if err != nil {
		return err
	}
	if !IsControlFlow(term.Opcode) {
		return diagnostics.New(diagnostics.InvalidState, "block %d control tail is not a terminator", blockRef)
	}
	changed := false
	for i, t := range term.Imm.Targets {
		if t == oldTarget {
			term.Imm.Targets[i] = newTarget
			changed = true
		}
	}
	if !changed {
		return diagnostics.New(diagnostics.NotFound, "block %d terminator has no edge to block %d", blockRef, oldTarget)
	}
	return nil
}
