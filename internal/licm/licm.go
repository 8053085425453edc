// Package licm implements loop-invariant code motion,
// component F: pre-header insertion with phi splitting, a fixpoint
// hoist-candidate collection pass, and worklist-driven hoisting, visiting
// outer loops before their children. A value hoisted out of an inner loop
// into the inner pre-header becomes a candidate for the enclosing loop in a
// later run, once the CFG and loop nest are rebuilt. A loop with nothing to
// hoist gets no pre-header.
package licm

import (
	"kefir/internal/cfg"
	"kefir/internal/ir"
	"kefir/internal/loopnest"
)

// Result summarizes one LICM pass over a function's loop nest.
type Result struct {
	HoistedCount int
	SkippedLoops []loopnest.ID
}

// Run executes one LICM pass over every loop in nest, outer loops first.
// Callers must rebuild the control-flow graph and rediscover the loop nest
// before running LICM again or running any other analysis, since this
// mutates blocks, phis and instruction placement.
func Run(fn *ir.Function, g *cfg.Graph, nest *loopnest.Nest) (Result, error) {
	var result Result
	for _, root := range nest.Roots {
		if err := runLoop(fn, g, root, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func runLoop(fn *ir.Function, g *cfg.Graph, loop *loopnest.Loop, result *Result) error {
	// With nothing to hoist the loop's control flow is left as it is, so a
	// repeated run adds no further pre-header.
	if len(collectHoistCandidates(fn, loop)) == 0 {
		for _, p := range g.Predecessors(loop.Header) {
			if p != loop.Tail && g.Reachable(p) {
				return runChildren(fn, g, loop, result)
			}
		}
	}

	pre, err := insertPreheader(fn, g, loop)
	if err != nil {
		if err == errNoOutsidePreds {
			result.SkippedLoops = append(result.SkippedLoops, loop.ID)
			return runChildren(fn, g, loop, result)
		}
		return err
	}

	candidates := collectHoistCandidates(fn, loop)
	n, err := hoistCandidates(fn, loop, candidates, pre)
	if err != nil {
		return err
	}
	result.HoistedCount += n

	if _, err := fn.AppendInstruction(pre, ir.OpJump, nil, ir.Immediate{Targets: []ir.BlockRef{loop.Header}}); err != nil {
		return err
	}

	return runChildren(fn, g, loop, result)
}

func runChildren(fn *ir.Function, g *cfg.Graph, loop *loopnest.Loop, result *Result) error {
	for _, child := range loop.Children {
		if err := runLoop(fn, g, child, result); err != nil {
			return err
		}
	}
	return nil
}
