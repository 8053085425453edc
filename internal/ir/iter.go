package ir

import "kefir/internal/diagnostics"

// Instr returns the instruction ref points to. Returns diagnostics.NotFound
// if ref has been dropped, diagnostics.OutOfBounds if it was never valid.
func (fn *Function) Instr(ref InstrRef) (*Instruction, error) { return fn.instr(ref) }

// Phi returns the phi node phiRef points to.
func (fn *Function) Phi(phiRef PhiRef) (*Phi, error) {
	if int(phiRef) >= len(fn.phis) {
		return nil, diagnostics.New(diagnostics.OutOfBounds, "phi %d out of range", phiRef)
	}
	return &fn.phis[phiRef], nil
}

// Blocks iterates every block in creation order, stopping early if yield
// returns false. Creation order is stable, but otherwise blocks are
// unordered: callers needing reverse postorder use
// internal/cfg.
func (fn *Function) Blocks(yield func(BlockRef) bool) {
	for i := range fn.blocks {
		if !yield(fn.blocks[i].ID) {
			return
		}
	}
}

// BlockCount reports how many blocks fn has.
func (fn *Function) BlockCount() int { return len(fn.blocks) }

// DefHead returns the first instruction in blockRef's definition order, or
// NoInstr if the block is empty.
func (fn *Function) DefHead(blockRef BlockRef) (InstrRef, error) {
	b, err := fn.block(blockRef)
	if err != nil {
		return NoInstr, err
	}
	return b.defHead, nil
}

// DefNext returns the instruction following ref in its block's definition
// order, or NoInstr at the tail.
func (fn *Function) DefNext(ref InstrRef) (InstrRef, error) {
	inst, err := fn.instr(ref)
	if err != nil {
		return NoInstr, err
	}
	return inst.defNext, nil
}

// DefOrder iterates blockRef's instructions in definition order.
func (fn *Function) DefOrder(blockRef BlockRef, yield func(InstrRef) bool) {
	b, err := fn.block(blockRef)
	if err != nil {
		return
	}
	for ref := b.defHead; ref != NoInstr; {
		if !yield(ref) {
			return
		}
		inst, err := fn.instr(ref)
		if err != nil {
			return
		}
		ref = inst.defNext
	}
}

// ControlHead returns the first instruction in blockRef's control order, or
// NoInstr if the block has no control-order instructions yet.
func (fn *Function) ControlHead(blockRef BlockRef) (InstrRef, error) {
	b, err := fn.block(blockRef)
	if err != nil {
		return NoInstr, err
	}
	return b.ctrlHead, nil
}

// ControlNext returns the instruction following ref in its block's control
// order, or NoInstr at the tail.
func (fn *Function) ControlNext(ref InstrRef) (InstrRef, error) {
	inst, err := fn.instr(ref)
	if err != nil {
		return NoInstr, err
	}
	return inst.ctrlNext, nil
}

// ControlOrder iterates blockRef's instructions in control order: loads,
// stores, calls, branches, returns, and allocation-lifetime marks.
func (fn *Function) ControlOrder(blockRef BlockRef, yield func(InstrRef) bool) {
	b, err := fn.block(blockRef)
	if err != nil {
		return
	}
	for ref := b.ctrlHead; ref != NoInstr; {
		if !yield(ref) {
			return
		}
		inst, err := fn.instr(ref)
		if err != nil {
			return
		}
		ref = inst.ctrlNext
	}
}

// PhiHead returns the first phi attached to blockRef, or NoPhi if none.
func (fn *Function) PhiHead(blockRef BlockRef) (PhiRef, error) {
	b, err := fn.block(blockRef)
	if err != nil {
		return NoPhi, err
	}
	return b.phiHead, nil
}

// PhiOrder iterates blockRef's phi nodes in attachment order.
func (fn *Function) PhiOrder(blockRef BlockRef, yield func(PhiRef) bool) {
	b, err := fn.block(blockRef)
	if err != nil {
		return
	}
	for ref := b.phiHead; ref != NoPhi; {
		if !yield(ref) {
			return
		}
		phi := &fn.phis[ref]
		ref = phi.sibNext
	}
}

// Terminator returns blockRef's control terminator, or diagnostics.NotFound
// if the block has not been finalized with one yet.
func (fn *Function) Terminator(blockRef BlockRef) (*Instruction, error) {
	b, err := fn.block(blockRef)
	if err != nil {
		return nil, err
	}
	if b.ctrlTail == NoInstr {
		return nil, diagnostics.New(diagnostics.NotFound, "block %d has no terminator", blockRef)
	}
	term, err := fn.instr(b.ctrlTail)
	if err != nil {
		return nil, err
	}
	if !IsControlFlow(term.Opcode) {
		return nil, diagnostics.New(diagnostics.NotFound, "block %d has no terminator", blockRef)
	}
	return term, nil
}

// Successors returns the block targets of blockRef's terminator, or nil if
// it has none (e.g. a return or unreachable).
func (fn *Function) Successors(blockRef BlockRef) ([]BlockRef, error) {
	term, err := fn.Terminator(blockRef)
	if err != nil {
		return nil, err
	}
	return term.Imm.Targets, nil
}
