// Package passdriver sequences the mid-end analyses and transforms over one
// function: build the control-flow structure (component C), then run LICM
// (component F) in rounds governed by optconfig.Config, each round
// discovering the loop nest (component E) afresh and rebuilding the
// control-flow structure after it, until a round hoists nothing or the
// round limit is reached; finally discover the loop nest and run liveness
// and variable-conflict analysis (component D) on the resulting IR.
package passdriver

import (
	"kefir/internal/cfg"
	"kefir/internal/diagnostics"
	"kefir/internal/ir"
	"kefir/internal/licm"
	"kefir/internal/liveness"
	"kefir/internal/loopnest"
	"kefir/internal/optconfig"
)

// Report summarizes one driver run over a function: the analyses built on
// the final (post-optimization) IR shape, plus how many LICM rounds ran and
// how many instructions moved in total.
type Report struct {
	Graph        *cfg.Graph
	Nest         *loopnest.Nest
	Liveness     *liveness.Liveness
	Conflicts    *liveness.VariableConflicts
	LICMRounds   int
	TotalHoisted int
	SkippedLoops []loopnest.ID
}

// Run executes the full pipeline on fn. With config.EnableLICM false, it
// builds the structural analyses once and returns without transforming the
// IR — useful for front-end diagnostics passes that only need CFG/liveness
// facts.
func Run(fn *ir.Function, config optconfig.Config) (*Report, error) {
	report := &Report{}

	g, err := cfg.Build(fn)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.InternalError, err, "building control-flow structure")
	}
	report.Graph = g

	if config.EnableLICM {
		maxRounds := config.MaxLICMFixpointIterations
		if maxRounds <= 0 {
			maxRounds = 1
		}
		for round := 0; round < maxRounds; round++ {
			nest := loopnest.Discover(g)
			result, err := licm.Run(fn, g, nest)
			if err != nil {
				return nil, diagnostics.Wrap(diagnostics.InternalError, err, "running LICM round %d", round)
			}
			report.LICMRounds++
			report.TotalHoisted += result.HoistedCount
			report.SkippedLoops = append(report.SkippedLoops, result.SkippedLoops...)
			if result.HoistedCount == 0 {
				break
			}
			g, err = cfg.Build(fn)
			if err != nil {
				return nil, diagnostics.Wrap(diagnostics.InternalError, err, "rebuilding control-flow structure after LICM round %d", round)
			}
			report.Graph = g
		}
	}

	report.Nest = loopnest.Discover(g)
	report.Liveness = liveness.Compute(fn, g)
	report.Conflicts = liveness.ComputeConflicts(fn, report.Liveness)
	return report, nil
}
