package licm

import (
	"kefir/internal/cfg"
	"kefir/internal/diagnostics"
	"kefir/internal/ir"
	"kefir/internal/loopnest"
)

// insertPreheader implements the six-step pre-header insertion
// for one loop, returning the new block. Predecessors of the header other
// than the loop's own back-edge source are retargeted to it, and every phi
// at the header is split so loop-external incoming values flow through the
// pre-header while the back-edge value still arrives directly.
func insertPreheader(fn *ir.Function, g *cfg.Graph, loop *loopnest.Loop) (ir.BlockRef, error) {
	var outsidePreds []ir.BlockRef
	for _, p := range g.Predecessors(loop.Header) {
		if p == loop.Tail {
			continue
		}
		if !g.Reachable(p) {
			continue
		}
		outsidePreds = append(outsidePreds, p)
	}
	if len(outsidePreds) == 0 {
		return ir.NoBlock, errNoOutsidePreds
	}

	pre := fn.NewBlock()
	for _, q := range outsidePreds {
		if err := fn.ReplaceControlFlowTarget(q, loop.Header, pre); err != nil {
			return ir.NoBlock, err
		}
	}

	var headerPhis []ir.PhiRef
	fn.PhiOrder(loop.Header, func(p ir.PhiRef) bool {
		headerPhis = append(headerPhis, p)
		return true
	})

	for _, phiRef := range headerPhis {
		phi, err := fn.Phi(phiRef)
		if err != nil {
			return ir.NoBlock, err
		}
		tailValue, hasTail := phi.Incoming[loop.Tail]
		if !hasTail {
			return ir.NoBlock, diagnostics.New(diagnostics.InternalError,
				"phi %d at loop header %d has no incoming value from back-edge %d", phiRef, loop.Header, loop.Tail)
		}

		prePhiRef, preOut, err := fn.NewPhi(pre)
		if err != nil {
			return ir.NoBlock, err
		}
		for _, q := range outsidePreds {
			value, ok := phi.Incoming[q]
			if !ok {
				return ir.NoBlock, diagnostics.New(diagnostics.InternalError,
					"phi %d at loop header %d has no incoming value from predecessor %d", phiRef, loop.Header, q)
			}
			if err := fn.AttachPhi(prePhiRef, q, value); err != nil {
				return ir.NoBlock, err
			}
		}

		newHeaderPhiRef, newHeaderOut, err := fn.NewPhi(loop.Header)
		if err != nil {
			return ir.NoBlock, err
		}
		if err := fn.AttachPhi(newHeaderPhiRef, pre, preOut); err != nil {
			return ir.NoBlock, err
		}
		if err := fn.AttachPhi(newHeaderPhiRef, loop.Tail, tailValue); err != nil {
			return ir.NoBlock, err
		}

		if err := fn.ReplaceReferences(phi.Output, newHeaderOut); err != nil {
			return ir.NoBlock, err
		}
		if err := fn.DropInstr(phi.Output); err != nil {
			return ir.NoBlock, err
		}
	}

	return pre, nil
}

var errNoOutsidePreds = diagnostics.New(diagnostics.InvalidState, "loop has zero reachable non-back-edge predecessors")
