package ir

// Immediate bundles the opcode-specific, non-InstrRef parameters an
// instruction carries, alongside up to N InstrRef operands. Only the
// fields relevant to a
// given Opcode are populated; the rest are zero.
type Immediate struct {
	Int     int64      // OpConstInt, OpZeroExtend/OpSignExtend target width
	Float   float64    // OpConstFloat
	Str     string      // OpConstString string-ref symbol, OpCall callee symbol, OpAllocLocal/local-var name
	Targets []BlockRef // OpJump: [target]; OpBranch: [ifTrue, ifFalse]
}

// Instruction is the tagged record the container operates on: an opcode,
// up to N operand InstrRefs, opcode-specific immediates, and — for
// control-order members — a position in the doubly-linked control
// sequence. Definition order is also an explicit doubly-linked list so
// drop_instr and pre-header splicing are O(1) instead of requiring a
// slice shuffle.
type Instruction struct {
	ID       InstrRef
	Block    BlockRef
	Opcode   Opcode
	Operands []InstrRef
	Imm      Immediate

	// PhiRef is set iff Opcode == OpPhi, linking this output instruction
	// back to the *Phi node that owns the incoming-edge map.
	PhiRef PhiRef

	defPrev, defNext   InstrRef
	ctrlPrev, ctrlNext InstrRef
}

// IsTerminator reports whether this instruction is the block's control
// terminator (a jump, branch, return, or unreachable).
func (i *Instruction) IsTerminator() bool { return IsControlFlow(i.Opcode) }

// Phi is a definition whose value depends on which predecessor block
// control arrived from. It owns one output
// InstrRef (Opcode == OpPhi) usable as an operand everywhere else, and a
// predecessor-block -> incoming-InstrRef map populated via AttachPhi.
type Phi struct {
	ID       PhiRef
	Block    BlockRef
	Output   InstrRef
	Incoming map[BlockRef]InstrRef

	sibPrev, sibNext PhiRef
}

// Block is a sequence of instructions with exactly one control terminator
// once finalized. Predecessor/successor structure is not stored here — it
// is derived by internal/cfg from scanning control terminators across all
// blocks.
type Block struct {
	ID BlockRef

	defHead, defTail   InstrRef
	ctrlHead, ctrlTail InstrRef
	phiHead, phiTail   PhiRef
}

// Use records one (user, operand) edge reaching a definition, so
// replace_references and drop_instr never need to scan the IR to answer
// "who uses this?". Exactly one of the two shapes applies:
// a plain instruction operand edge, or a phi incoming edge tagged with the
// predecessor block it arrives from.
type Use struct {
	IsPhi bool
	Instr InstrRef // meaningful when !IsPhi
	Phi   PhiRef   // meaningful when IsPhi
	Pred  BlockRef // meaningful when IsPhi
}

func hashUse(u Use) uint64 {
	if u.IsPhi {
		return uint64(u.Phi)<<32 | uint64(u.Pred)<<1 | 1
	}
	return uint64(u.Instr) << 1
}
