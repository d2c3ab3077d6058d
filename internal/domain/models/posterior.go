package models

// Sample is one joint posterior draw of the change-point model's latents.
type Sample struct {
	SwitchIndex int
	MeanBefore  float64
	MeanAfter   float64
	ScaleBefore float64
	ScaleAfter  float64
}

// Chain is the ordered sequence of retained draws from one sampling run.
type Chain struct {
	Seed        uint64
	Draws       []Sample
	Accepts     int // accepted scale proposals, retained phase only
	Divergences int // non-finite proposals seen, below the fatal limit
}

// Ensemble is the set of chains from one inference run over the same model
// and data. Owned by the sampler while running; read-only afterwards.
type Ensemble struct {
	Chains  []Chain
	NumTune int
}

// NumDraws returns the retained draws per chain.
func (e *Ensemble) NumDraws() int {
	if len(e.Chains) == 0 {
		return 0
	}
	return len(e.Chains[0].Draws)
}

// Pooled flattens retained draws across all chains, chain order preserved.
func (e *Ensemble) Pooled() []Sample {
	out := make([]Sample, 0, len(e.Chains)*e.NumDraws())
	for _, c := range e.Chains {
		out = append(out, c.Draws...)
	}
	return out
}
