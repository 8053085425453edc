package licm

import (
	"testing"

	"kefir/internal/cfg"
	"kefir/internal/frontend"
	"kefir/internal/ir"
	"kefir/internal/loopnest"
)

func buildLoopWithInvariants(t *testing.T) (*ir.Function, ir.BlockRef, ir.BlockRef, ir.InstrRef, ir.InstrRef, ir.InstrRef) {
	t.Helper()
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "f"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	entry := fn.NewBlock()
	header := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()

	ptr, err := fn.AppendInstruction(entry, ir.OpAllocLocal, nil, ir.Immediate{Str: "p"})
	if err != nil {
		t.Fatalf("alloc: %v", err)
	}
	if _, err := fn.AppendInstruction(entry, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{header}}); err != nil {
		t.Fatalf("entry jump: %v", err)
	}
	if _, err := fn.AppendInstruction(header, ir.OpBranch, nil, ir.Immediate{Targets: []ir.BlockRef{body, exit}}); err != nil {
		t.Fatalf("header branch: %v", err)
	}

	c, err := fn.AppendInstruction(body, ir.OpConstInt, nil, ir.Immediate{Int: 5})
	if err != nil {
		t.Fatalf("const: %v", err)
	}
	ext, err := fn.AppendInstruction(body, ir.OpZeroExtend, []ir.InstrRef{c}, ir.Immediate{Int: 64})
	if err != nil {
		t.Fatalf("zext: %v", err)
	}
	ld, err := fn.AppendInstruction(body, ir.OpLoad, []ir.InstrRef{ptr}, ir.Immediate{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := fn.AppendInstruction(body, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{header}}); err != nil {
		t.Fatalf("body jump: %v", err)
	}
	if _, err := fn.AppendInstruction(exit, ir.OpReturn, nil, ir.Immediate{}); err != nil {
		t.Fatalf("exit return: %v", err)
	}

	return fn, header, body, c, ext, ld
}

func TestHoistConstantAndExtension(t *testing.T) {
	fn, header, body, c, ext, ld := buildLoopWithInvariants(t)

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	nest := loopnest.Discover(g)
	if len(nest.Roots) != 1 {
		t.Fatalf("expected 1 loop, got %d", len(nest.Roots))
	}

	result, err := Run(fn, g, nest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.HoistedCount != 2 {
		t.Fatalf("expected 2 hoisted instructions (const, zext), got %d", result.HoistedCount)
	}
	if len(result.SkippedLoops) != 0 {
		t.Fatalf("no loop should be skipped, got %v", result.SkippedLoops)
	}

	cInst, err := fn.Instr(c)
	if err != nil {
		t.Fatalf("Instr(c): %v", err)
	}
	extInst, err := fn.Instr(ext)
	if err != nil {
		t.Fatalf("Instr(ext): %v", err)
	}
	if cInst.Block != extInst.Block {
		t.Fatalf("const and zext should have been hoisted into the same pre-header block")
	}
	if cInst.Block == body || cInst.Block == header {
		t.Fatalf("const should no longer be in the loop body or header, got block %d", cInst.Block)
	}

	ldInst, err := fn.Instr(ld)
	if err != nil {
		t.Fatalf("Instr(ld): %v", err)
	}
	if ldInst.Block != body {
		t.Fatalf("load must never be hoisted (has side effects / control order), got block %d", ldInst.Block)
	}

	preheader := cInst.Block
	term, err := fn.Terminator(preheader)
	if err != nil {
		t.Fatalf("Terminator(preheader): %v", err)
	}
	if term.Opcode != ir.OpJump || len(term.Imm.Targets) != 1 || term.Imm.Targets[0] != header {
		t.Fatalf("pre-header should end with an unconditional jump to the header, got %+v", term)
	}
}

func TestSkipLoopWithNoOutsidePredecessors(t *testing.T) {
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "selfloop"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	header := fn.NewBlock() // entry block, so it has no external predecessor
	body := fn.NewBlock()

	if _, err := fn.AppendInstruction(header, ir.OpBranch, nil, ir.Immediate{Targets: []ir.BlockRef{body, body}}); err != nil {
		t.Fatalf("branch: %v", err)
	}
	if _, err := fn.AppendInstruction(body, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{header}}); err != nil {
		t.Fatalf("jump: %v", err)
	}

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	nest := loopnest.Discover(g)
	beforeBlocks := fn.BlockCount()

	result, err := Run(fn, g, nest)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.SkippedLoops) != 1 {
		t.Fatalf("expected the self-loop to be skipped, got %v", result.SkippedLoops)
	}
	if fn.BlockCount() != beforeBlocks {
		t.Fatalf("skipped loop should not allocate a pre-header block")
	}
}

func TestPhiSplittingRoutesValuesThroughPreheader(t *testing.T) {
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "phi"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	entry := fn.NewBlock()
	header := fn.NewBlock()
	body := fn.NewBlock()
	exit := fn.NewBlock()

	initVal, err := fn.AppendInstruction(entry, ir.OpConstInt, nil, ir.Immediate{Int: 0})
	if err != nil {
		t.Fatalf("init const: %v", err)
	}
	fn.AppendInstruction(entry, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{header}})

	phiRef, phiOut, err := fn.NewPhi(header)
	if err != nil {
		t.Fatalf("NewPhi: %v", err)
	}
	if err := fn.AttachPhi(phiRef, entry, initVal); err != nil {
		t.Fatalf("attach entry: %v", err)
	}

	fn.AppendInstruction(header, ir.OpBranch, nil, ir.Immediate{Targets: []ir.BlockRef{body, exit}})
	one, _ := fn.AppendInstruction(body, ir.OpConstInt, nil, ir.Immediate{Int: 1})
	next, err := fn.AppendInstruction(body, ir.OpAdd, []ir.InstrRef{phiOut, one}, ir.Immediate{})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := fn.AttachPhi(phiRef, body, next); err != nil {
		t.Fatalf("attach body: %v", err)
	}
	fn.AppendInstruction(body, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{header}})
	fn.AppendInstruction(exit, ir.OpReturn, nil, ir.Immediate{})

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	nest := loopnest.Discover(g)

	if _, err := Run(fn, g, nest); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The original phi output was replaced; its instruction must be gone.
	if _, err := fn.Instr(phiOut); err == nil {
		t.Fatalf("original phi output should have been dropped after splitting")
	}

	var headerPhis []ir.PhiRef
	fn.PhiOrder(header, func(p ir.PhiRef) bool {
		headerPhis = append(headerPhis, p)
		return true
	})
	if len(headerPhis) != 1 {
		t.Fatalf("header should have exactly one (new) phi after splitting, got %d", len(headerPhis))
	}
	newPhi, err := fn.Phi(headerPhis[0])
	if err != nil {
		t.Fatalf("Phi: %v", err)
	}
	if len(newPhi.Incoming) != 2 {
		t.Fatalf("new header phi should have 2 incoming edges, got %d", len(newPhi.Incoming))
	}
	if newPhi.Incoming[body] != next {
		t.Fatalf("new header phi should still take the back-edge value directly from body")
	}
}
