package inference

import (
	"fmt"
	"time"
)

// DegenerateSeriesError reports a return series with nothing to model.
type DegenerateSeriesError struct {
	N      int
	StdDev float64
}

func (e *DegenerateSeriesError) Error() string {
	return fmt.Sprintf("degenerate return series (n=%d, sd=%g): no detectable variation to model", e.N, e.StdDev)
}

// SamplerDivergenceError reports a chain whose continuous proposals went
// numerically non-finite more often than the configured limit. Carries the
// chain state at failure so the run can be diagnosed without re-sampling.
type SamplerDivergenceError struct {
	Chain       int
	Sweep       int
	Count       int
	Limit       int
	SwitchIndex int
	MeanBefore  float64
	MeanAfter   float64
	ScaleBefore float64
	ScaleAfter  float64
}

func (e *SamplerDivergenceError) Error() string {
	return fmt.Sprintf(
		"chain %d diverged at sweep %d (%d non-finite proposals, limit %d; tau=%d mu=[%g %g] sigma=[%g %g])",
		e.Chain, e.Sweep, e.Count, e.Limit, e.SwitchIndex,
		e.MeanBefore, e.MeanAfter, e.ScaleBefore, e.ScaleAfter)
}

// SamplerTimeoutError reports that the caller's wall-clock budget expired
// before all chains finished. The partial ensemble is discarded, never
// returned unflagged.
type SamplerTimeoutError struct {
	Chain   int
	Sweep   int
	Elapsed time.Duration
}

func (e *SamplerTimeoutError) Error() string {
	return fmt.Sprintf("sampling budget exceeded after %s (chain %d, sweep %d)", e.Elapsed, e.Chain, e.Sweep)
}
