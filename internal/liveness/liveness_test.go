package liveness

import (
	"testing"

	"kefir/internal/cfg"
	"kefir/internal/frontend"
	"kefir/internal/ir"
)

func buildLinear(t *testing.T) (*ir.Function, *cfg.Graph, ir.InstrRef, ir.BlockRef, ir.BlockRef) {
	t.Helper()
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "linear"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()

	c, err := fn.AppendInstruction(b0, ir.OpConstInt, nil, ir.Immediate{Int: 5})
	if err != nil {
		t.Fatalf("const: %v", err)
	}
	if _, err := fn.AppendInstruction(b0, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{b1}}); err != nil {
		t.Fatalf("jump: %v", err)
	}
	if _, err := fn.AppendInstruction(b1, ir.OpNeg, []ir.InstrRef{c}, ir.Immediate{}); err != nil {
		t.Fatalf("neg: %v", err)
	}
	if _, err := fn.AppendInstruction(b1, ir.OpReturn, nil, ir.Immediate{}); err != nil {
		t.Fatalf("return: %v", err)
	}

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	return fn, g, c, b0, b1
}

func TestLivenessCrossBlockValueIsLiveOutOfDefiningBlock(t *testing.T) {
	fn, g, c, b0, b1 := buildLinear(t)
	l := Compute(fn, g)

	if !l.IsAlive(c, b0) {
		t.Fatalf("c should be live at b0 boundary (used in b1)")
	}
	out := l.LiveOut(b0)
	found := false
	for _, r := range out {
		if r == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("c should be in live_out[b0], got %v", out)
	}

	in := l.LiveIn(b1)
	found = false
	for _, r := range in {
		if r == c {
			found = true
		}
	}
	if !found {
		t.Fatalf("c should be in live_in[b1], got %v", in)
	}
}

func TestLivenessLocallyUsedValueIsNotLiveAcrossBlocks(t *testing.T) {
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "local"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	b0 := fn.NewBlock()
	b1 := fn.NewBlock()

	c, _ := fn.AppendInstruction(b0, ir.OpConstInt, nil, ir.Immediate{Int: 1})
	fn.AppendInstruction(b0, ir.OpNeg, []ir.InstrRef{c}, ir.Immediate{})
	fn.AppendInstruction(b0, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{b1}})
	fn.AppendInstruction(b1, ir.OpReturn, nil, ir.Immediate{})

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	l := Compute(fn, g)

	if l.IsAlive(c, b1) {
		t.Fatalf("c is consumed entirely within b0 and should not be alive at b1")
	}
}

func TestLivenessPhiIncomingAttributedToPredecessor(t *testing.T) {
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "diamond"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	entry := fn.NewBlock()
	left := fn.NewBlock()
	right := fn.NewBlock()
	join := fn.NewBlock()

	fn.AppendInstruction(entry, ir.OpBranch, nil, ir.Immediate{Targets: []ir.BlockRef{left, right}})
	leftVal, _ := fn.AppendInstruction(left, ir.OpConstInt, nil, ir.Immediate{Int: 1})
	fn.AppendInstruction(left, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{join}})
	rightVal, _ := fn.AppendInstruction(right, ir.OpConstInt, nil, ir.Immediate{Int: 2})
	fn.AppendInstruction(right, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{join}})

	phiRef, _, err := fn.NewPhi(join)
	if err != nil {
		t.Fatalf("NewPhi: %v", err)
	}
	fn.AttachPhi(phiRef, left, leftVal)
	fn.AttachPhi(phiRef, right, rightVal)
	fn.AppendInstruction(join, ir.OpReturn, nil, ir.Immediate{})

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	l := Compute(fn, g)

	outLeft := l.LiveOut(left)
	found := false
	for _, r := range outLeft {
		if r == leftVal {
			found = true
		}
	}
	if !found {
		t.Fatalf("leftVal should be live_out of left via phi incoming edge, got %v", outLeft)
	}

	outRight := l.LiveOut(right)
	for _, r := range outRight {
		if r == leftVal {
			t.Fatalf("leftVal should not be attributed to right's live_out")
		}
	}
}

func TestVariableConflictsPartition(t *testing.T) {
	m := ir.NewModule()
	fn, err := m.NewFunction(frontend.FunctionSignature{Name: "f"})
	if err != nil {
		t.Fatalf("NewFunction: %v", err)
	}
	b0 := fn.NewBlock()

	global, _ := fn.AppendInstruction(b0, ir.OpAllocLocal, nil, ir.Immediate{Str: "g"})
	a, _ := fn.AppendInstruction(b0, ir.OpAllocLocal, nil, ir.Immediate{Str: "a"})
	fn.AppendInstruction(b0, ir.OpLocalLifetimeMark, []ir.InstrRef{a}, ir.Immediate{})
	bLocal, _ := fn.AppendInstruction(b0, ir.OpAllocLocal, nil, ir.Immediate{Str: "b"})
	fn.AppendInstruction(b0, ir.OpLocalLifetimeMark, []ir.InstrRef{bLocal}, ir.Immediate{})
	fn.AppendInstruction(b0, ir.OpReturn, nil, ir.Immediate{})

	g, err := cfg.Build(fn)
	if err != nil {
		t.Fatalf("cfg.Build: %v", err)
	}
	l := Compute(fn, g)
	vc := ComputeConflicts(fn, l)

	if len(vc.GloballyAlive) != 1 || vc.GloballyAlive[0] != global {
		t.Fatalf("expected global alone to be globally alive, got %v", vc.GloballyAlive)
	}
	if len(vc.LocallyAlive) != 2 {
		t.Fatalf("expected a and b to be locally alive, got %v", vc.LocallyAlive)
	}
}
