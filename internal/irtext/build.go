package irtext

import (
	"strings"

	"kefir/internal/diagnostics"
	"kefir/internal/frontend"
	"kefir/internal/ir"
)

var opcodeByMnemonic = map[string]ir.Opcode{
	"const_int": ir.OpConstInt, "const_float": ir.OpConstFloat,
	"const_string": ir.OpConstString, "const_placeholder": ir.OpConstPlaceholder,
	"add": ir.OpAdd, "sub": ir.OpSub, "mul": ir.OpMul, "sdiv": ir.OpSDiv, "udiv": ir.OpUDiv,
	"and": ir.OpAnd, "or": ir.OpOr, "xor": ir.OpXor, "shl": ir.OpShl, "shr": ir.OpShr,
	"neg": ir.OpNeg, "not": ir.OpNot,
	"icmp_eq": ir.OpICmpEq, "icmp_ne": ir.OpICmpNe, "icmp_lt": ir.OpICmpLt,
	"icmp_le": ir.OpICmpLe, "icmp_gt": ir.OpICmpGt, "icmp_ge": ir.OpICmpGe,
	"zext": ir.OpZeroExtend, "sext": ir.OpSignExtend,
	"alloc_local": ir.OpAllocLocal, "lifetime_mark": ir.OpLocalLifetimeMark,
	"load": ir.OpLoad, "store": ir.OpStore, "call": ir.OpCall,
	"jump": ir.OpJump, "branch": ir.OpBranch, "return": ir.OpReturn, "unreachable": ir.OpUnreachable,
}

// Build translates a parsed File into a fresh internal/ir.Module, resolving
// block labels and %value references across the whole function before any
// instruction that uses them forward (phi incoming edges in particular may
// name a value defined by a block appearing later in the text).
func Build(file *File) (*ir.Module, error) {
	m := ir.NewModule()
	for _, decl := range file.Functions {
		if err := buildFunction(m, decl); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func buildFunction(m *ir.Module, decl *FunctionDecl) error {
	sig := frontend.FunctionSignature{Name: decl.Name, ReturnType: decl.Returns, Vararg: decl.Vararg}
	for _, p := range decl.Params {
		sig.ParamTypes = append(sig.ParamTypes, p.Type)
	}
	fn, err := m.NewFunction(sig)
	if err != nil {
		return err
	}

	blocks := make(map[string]ir.BlockRef, len(decl.Blocks))
	for _, b := range decl.Blocks {
		blocks[b.Label] = fn.NewBlock()
	}
	resolveBlock := func(label string) (ir.BlockRef, error) {
		ref, ok := blocks[label]
		if !ok {
			return ir.NoBlock, diagnostics.New(diagnostics.NotFound, "undefined block label %q", label)
		}
		return ref, nil
	}

	phis := make(map[string]ir.PhiRef)
	values := make(map[string]ir.InstrRef)
	for _, b := range decl.Blocks {
		blockRef := blocks[b.Label]
		for _, p := range b.Phis {
			phiRef, output, err := fn.NewPhi(blockRef)
			if err != nil {
				return err
			}
			phis[p.Dest] = phiRef
			values[p.Dest] = output
		}
	}
	resolveValue := func(name string) (ir.InstrRef, error) {
		ref, ok := values[name]
		if !ok {
			return ir.NoInstr, diagnostics.New(diagnostics.NotFound, "undefined value %%%s", name)
		}
		return ref, nil
	}

	for _, b := range decl.Blocks {
		blockRef := blocks[b.Label]
		for _, instr := range b.Instrs {
			ref, err := buildInstruction(fn, blockRef, instr, resolveValue, resolveBlock)
			if err != nil {
				return err
			}
			if instr.Dest != nil {
				values[*instr.Dest] = ref
			}
		}
	}

	for _, b := range decl.Blocks {
		for _, p := range b.Phis {
			phiRef := phis[p.Dest]
			for _, incoming := range p.Incoming {
				predRef, err := resolveBlock(incoming.Pred)
				if err != nil {
					return err
				}
				valueRef, err := resolveValue(incoming.Value)
				if err != nil {
					return err
				}
				if err := fn.AttachPhi(phiRef, predRef, valueRef); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

type valueResolver func(name string) (ir.InstrRef, error)
type blockResolver func(label string) (ir.BlockRef, error)

func buildInstruction(fn *ir.Function, block ir.BlockRef, decl *InstrDecl, resolveValue valueResolver, resolveBlock blockResolver) (ir.InstrRef, error) {
	op, ok := opcodeByMnemonic[decl.Opcode]
	if !ok {
		return ir.NoInstr, diagnostics.New(diagnostics.InvalidRequest, "unknown opcode %q", decl.Opcode)
	}

	var operands []ir.InstrRef
	var imm ir.Immediate

	switch op {
	case ir.OpConstInt:
		if n, err := firstInt(decl.Operands); err == nil {
			imm.Int = n
		}
	case ir.OpConstFloat:
		if n, err := firstInt(decl.Operands); err == nil {
			imm.Float = float64(n)
		}
	case ir.OpConstString, ir.OpAllocLocal:
		if s, err := firstString(decl.Operands); err == nil {
			imm.Str = s
		}
	case ir.OpConstPlaceholder, ir.OpUnreachable:
		// no operands
	case ir.OpZeroExtend, ir.OpSignExtend:
		for _, o := range decl.Operands {
			if o.ValueRef != nil {
				ref, err := resolveValue(o.ValueRef.Name)
				if err != nil {
					return ir.NoInstr, err
				}
				operands = append(operands, ref)
			} else if o.Int != nil {
				imm.Int = *o.Int
			}
		}
	case ir.OpCall:
		for i, o := range decl.Operands {
			if i == 0 {
				if o.Str == nil {
					return ir.NoInstr, diagnostics.New(diagnostics.InvalidRequest, "call's first operand must be a string callee symbol")
				}
				imm.Str = *o.Str
				continue
			}
			if o.ValueRef == nil {
				return ir.NoInstr, diagnostics.New(diagnostics.InvalidRequest, "call arguments must be %%value references")
			}
			ref, err := resolveValue(o.ValueRef.Name)
			if err != nil {
				return ir.NoInstr, err
			}
			operands = append(operands, ref)
		}
	case ir.OpJump:
		label, err := firstLabel(decl.Operands)
		if err != nil {
			return ir.NoInstr, err
		}
		target, err := resolveBlock(label)
		if err != nil {
			return ir.NoInstr, err
		}
		imm.Targets = []ir.BlockRef{target}
	case ir.OpBranch:
		if len(decl.Operands) != 3 || decl.Operands[0].ValueRef == nil {
			return ir.NoInstr, diagnostics.New(diagnostics.InvalidRequest, "branch needs a condition value and two block labels")
		}
		cond, err := resolveValue(decl.Operands[0].ValueRef.Name)
		if err != nil {
			return ir.NoInstr, err
		}
		operands = append(operands, cond)
		var targets []ir.BlockRef
		for _, o := range decl.Operands[1:] {
			if o.Label == nil {
				return ir.NoInstr, diagnostics.New(diagnostics.InvalidRequest, "branch targets must be block labels")
			}
			target, err := resolveBlock(*o.Label)
			if err != nil {
				return ir.NoInstr, err
			}
			targets = append(targets, target)
		}
		imm.Targets = targets
	default:
		for _, o := range decl.Operands {
			if o.ValueRef == nil {
				return ir.NoInstr, diagnostics.New(diagnostics.InvalidRequest, "opcode %q expects %%value operands", decl.Opcode)
			}
			ref, err := resolveValue(o.ValueRef.Name)
			if err != nil {
				return ir.NoInstr, err
			}
			operands = append(operands, ref)
		}
	}

	return fn.AppendInstruction(block, op, operands, imm)
}

func firstInt(operands []*OperandDecl) (int64, error) {
	for _, o := range operands {
		if o.Int != nil {
			return *o.Int, nil
		}
	}
	return 0, diagnostics.New(diagnostics.InvalidRequest, "expected an integer immediate operand")
}

func firstString(operands []*OperandDecl) (string, error) {
	for _, o := range operands {
		if o.Str != nil {
			return unquote(*o.Str), nil
		}
	}
	return "", diagnostics.New(diagnostics.InvalidRequest, "expected a string immediate operand")
}

func firstLabel(operands []*OperandDecl) (string, error) {
	for _, o := range operands {
		if o.Label != nil {
			return *o.Label, nil
		}
	}
	return "", diagnostics.New(diagnostics.InvalidRequest, "expected a block label operand")
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	s = strings.ReplaceAll(s, `\"`, `"`)
	return s
}
