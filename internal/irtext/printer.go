package irtext

import (
	"fmt"
	"strings"

	"kefir/internal/ir"
)

// PrintModule renders every function of m in the textual IR syntax, in
// declaration order. Grounded on grammar/printer.go's StringWithIndent
// pattern, adapted to the IR container's block/instruction/phi shape
// instead of Kanso source syntax.
func PrintModule(m *ir.Module) string {
	var b strings.Builder
	m.Functions(func(_ string, fn *ir.Function) bool {
		b.WriteString(PrintFunction(fn))
		b.WriteString("\n")
		return true
	})
	return b.String()
}

// PrintFunction renders one function: its signature followed by its blocks
// in declaration order.
func PrintFunction(fn *ir.Function) string {
	var b strings.Builder
	sig := fn.Signature
	b.WriteString(fmt.Sprintf("function @%s(", sig.Name))
	for i, t := range sig.ParamTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(t)
	}
	if sig.Vararg {
		if len(sig.ParamTypes) > 0 {
			b.WriteString(", ")
		}
		b.WriteString("...")
	}
	b.WriteString(")")
	if sig.ReturnType != "" {
		b.WriteString(" -> " + sig.ReturnType)
	}
	b.WriteString(" {\n")

	fn.Blocks(func(block ir.BlockRef) bool {
		b.WriteString(blockString(fn, block))
		return true
	})

	b.WriteString("}\n")
	return b.String()
}

func blockString(fn *ir.Function, block ir.BlockRef) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("  block b%d:\n", block))

	fn.PhiOrder(block, func(phiRef ir.PhiRef) bool {
		b.WriteString("    " + phiString(fn, phiRef) + "\n")
		return true
	})

	fn.DefOrder(block, func(ref ir.InstrRef) bool {
		inst, err := fn.Instr(ref)
		if err != nil || inst.Opcode == ir.OpPhi {
			return true
		}
		b.WriteString("    " + instrString(fn, inst) + "\n")
		return true
	})

	return b.String()
}

func phiString(fn *ir.Function, phiRef ir.PhiRef) string {
	phi, err := fn.Phi(phiRef)
	if err != nil {
		return fmt.Sprintf("; <missing phi %d>", phiRef)
	}
	var incoming []string
	for pred, value := range phi.Incoming {
		incoming = append(incoming, fmt.Sprintf("b%d: %%%d", pred, value))
	}
	return fmt.Sprintf("%%%d = phi [%s]", phi.Output, strings.Join(incoming, ", "))
}

func instrString(fn *ir.Function, inst *ir.Instruction) string {
	var operands []string
	for _, op := range inst.Operands {
		operands = append(operands, fmt.Sprintf("%%%d", op))
	}

	switch inst.Opcode {
	case ir.OpConstInt:
		operands = append(operands, fmt.Sprintf("%d", inst.Imm.Int))
	case ir.OpConstFloat:
		operands = append(operands, fmt.Sprintf("%g", inst.Imm.Float))
	case ir.OpConstString, ir.OpAllocLocal:
		operands = append(operands, fmt.Sprintf("%q", inst.Imm.Str))
	case ir.OpZeroExtend, ir.OpSignExtend:
		operands = append(operands, fmt.Sprintf("%d", inst.Imm.Int))
	case ir.OpCall:
		operands = append([]string{fmt.Sprintf("%q", inst.Imm.Str)}, operands...)
	case ir.OpJump:
		operands = append(operands, fmt.Sprintf("b%d", inst.Imm.Targets[0]))
	case ir.OpBranch:
		operands = append(operands, fmt.Sprintf("b%d", inst.Imm.Targets[0]), fmt.Sprintf("b%d", inst.Imm.Targets[1]))
	}

	body := inst.Opcode.String()
	if len(operands) > 0 {
		body += " " + strings.Join(operands, ", ")
	}
	if inst.IsTerminator() {
		return body
	}
	return fmt.Sprintf("%%%d = %s", inst.ID, body)
}
