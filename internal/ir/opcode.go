package ir

// Opcode is the closed set of instruction tags the core recognizes
// explicitly. The enumeration is extensible in principle, but the core
// only ever needs to classify each opcode as side-effect-free, control-flow,
// or a declared safe-to-hoist constant form — see IsSideEffectFree,
// IsControlFlow and IsSafeHoistableConstant below.
type Opcode int

const (
	// Constants.
	OpConstInt Opcode = iota
	OpConstFloat
	OpConstString
	OpConstPlaceholder

	// Side-effect-free arithmetic.
	OpAdd
	OpSub
	OpMul
	OpSDiv
	OpUDiv
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShr
	OpNeg
	OpNot
	OpICmpEq
	OpICmpNe
	OpICmpLt
	OpICmpLe
	OpICmpGt
	OpICmpGe

	// Zero/sign extension (single-operand).
	OpZeroExtend
	OpSignExtend

	// Local storage.
	OpAllocLocal
	OpLocalLifetimeMark

	// Memory operations, with side effects.
	OpLoad
	OpStore

	// Calls.
	OpCall

	// Control flow (block terminators).
	OpJump
	OpBranch
	OpReturn
	OpUnreachable

	// Phi output. The incoming-edge map lives on the owning *Phi, not on
	// the Instruction; this tag exists so a phi's output can be stored and
	// classified in the same instruction arena as everything else.
	OpPhi
)

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return "unknown"
}

var opcodeNames = map[Opcode]string{
	OpConstInt:           "const_int",
	OpConstFloat:         "const_float",
	OpConstString:        "const_string",
	OpConstPlaceholder:   "const_placeholder",
	OpAdd:                "add",
	OpSub:                "sub",
	OpMul:                "mul",
	OpSDiv:               "sdiv",
	OpUDiv:               "udiv",
	OpAnd:                "and",
	OpOr:                 "or",
	OpXor:                "xor",
	OpShl:                "shl",
	OpShr:                "shr",
	OpNeg:                "neg",
	OpNot:                "not",
	OpICmpEq:             "icmp_eq",
	OpICmpNe:             "icmp_ne",
	OpICmpLt:             "icmp_lt",
	OpICmpLe:             "icmp_le",
	OpICmpGt:             "icmp_gt",
	OpICmpGe:             "icmp_ge",
	OpZeroExtend:         "zext",
	OpSignExtend:         "sext",
	OpAllocLocal:         "alloc_local",
	OpLocalLifetimeMark:  "lifetime_mark",
	OpLoad:               "load",
	OpStore:              "store",
	OpCall:               "call",
	OpJump:               "jump",
	OpBranch:             "branch",
	OpReturn:             "return",
	OpUnreachable:        "unreachable",
	OpPhi:                "phi",
}

// sideEffectFreeOpcodes holds every opcode with no observable side effect:
// these live in definition order only. Notably ALLOC_LOCAL is
// side-effect-free by itself; only a LOCAL_LIFETIME_MARK referencing it
// narrows its live range and carries control order (the control
// order list also covers loads, stores, calls, branches, returns, allocation-lifetime
// marks" — ALLOC_LOCAL itself is absent from that list).
var sideEffectFreeOpcodes = map[Opcode]bool{
	OpConstInt: true, OpConstFloat: true, OpConstString: true, OpConstPlaceholder: true,
	OpAdd: true, OpSub: true, OpMul: true, OpSDiv: true, OpUDiv: true,
	OpAnd: true, OpOr: true, OpXor: true, OpShl: true, OpShr: true,
	OpNeg: true, OpNot: true,
	OpICmpEq: true, OpICmpNe: true, OpICmpLt: true, OpICmpLe: true, OpICmpGt: true, OpICmpGe: true,
	OpZeroExtend: true, OpSignExtend: true,
	OpAllocLocal: true,
	OpPhi:        true,
}

// IsSideEffectFree reports whether op has no observable side effect.
func IsSideEffectFree(op Opcode) bool { return sideEffectFreeOpcodes[op] }

// controlFlowOpcodes holds the block terminators. Every block has exactly
// one terminator in control order.
var controlFlowOpcodes = map[Opcode]bool{
	OpJump: true, OpBranch: true, OpReturn: true, OpUnreachable: true,
}

// IsControlFlow reports whether op is a terminator.
func IsControlFlow(op Opcode) bool { return controlFlowOpcodes[op] }

// controlOrderOpcodes holds every opcode that appears in a block's control
// order: terminators plus the non-terminating side-effect carriers.
var controlOrderOpcodes = map[Opcode]bool{
	OpLocalLifetimeMark: true,
	OpLoad:              true,
	OpStore:             true,
	OpCall:              true,
	OpJump:              true,
	OpBranch:            true,
	OpReturn:            true,
	OpUnreachable:       true,
}

// HasControlOrder reports whether op is placed in the block's control
// order in addition to its definition order.
func HasControlOrder(op Opcode) bool { return controlOrderOpcodes[op] }

// safeHoistableConstantOpcodes holds the opcodes that are always safe and
// hoisted unconditionally: constants, placeholders,
// and single-operand extension ops.
var safeHoistableConstantOpcodes = map[Opcode]bool{
	OpConstInt: true, OpConstFloat: true, OpConstString: true, OpConstPlaceholder: true,
	OpZeroExtend: true, OpSignExtend: true,
}

// IsSafeHoistableConstant reports whether op is unconditionally safe to
// hoist once its operands (if any) are outside the loop.
func IsSafeHoistableConstant(op Opcode) bool { return safeHoistableConstantOpcodes[op] }
