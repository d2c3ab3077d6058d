package models

import "time"

// Confidence levels attached to a summarized change point.
const (
	ConfidenceHigh = "high"
	ConfidenceLow  = "low"
)

// ChangePointRecord is the summarized output of one posterior mode: the
// inferred break date, its credible interval, segment means on the return
// scale and the price-scale impact.
type ChangePointRecord struct {
	Date          time.Time `json:"date"`
	DateCILow     time.Time `json:"date_ci_low"`
	DateCIHigh    time.Time `json:"date_ci_high"`
	MeanBefore    float64   `json:"mean_before"`
	MeanAfter     float64   `json:"mean_after"`
	ImpactPct     float64   `json:"impact_pct"`
	ConvergenceOK bool      `json:"convergence_ok"`
	Confidence    string    `json:"confidence"`
}

// VariableDiag is the convergence report for one scalar latent.
type VariableDiag struct {
	RHat float64 `json:"rhat"`
	ESS  float64 `json:"ess"`
}

// ConvergenceReport aggregates per-variable diagnostics and the overall
// verdict. Non-convergence is a quality signal, never an error.
type ConvergenceReport struct {
	Variables map[string]VariableDiag `json:"variables"`
	OK        bool                    `json:"ok"`
}

// RunResult is everything one inference run produces for downstream
// consumers: the records plus the diagnostics they were summarized under.
type RunResult struct {
	RunID       string              `json:"run_id"`
	Dataset     string              `json:"dataset"`
	StartedAt   time.Time           `json:"started_at"`
	Duration    time.Duration       `json:"-"`
	Records     []ChangePointRecord `json:"change_points"`
	Diagnostics ConvergenceReport   `json:"diagnostics"`
}

// Event is one row of the externally curated event table.
type Event struct {
	Date        time.Time `json:"date"`
	Description string    `json:"event"`
	Category    string    `json:"category,omitempty"`
}

// AlignedEvent pairs a change point with the nearest event inside the
// caller's window. Proximity only; no causal claim.
type AlignedEvent struct {
	Record   ChangePointRecord `json:"change_point"`
	Event    Event             `json:"event"`
	DistDays int               `json:"distance_days"`
}
