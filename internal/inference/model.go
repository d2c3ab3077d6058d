// Package inference holds the change-point engine: the probabilistic model
// over a single switch index with per-segment Normal means and scales, the
// Metropolis-within-Gibbs sampler that draws from its posterior, and the
// convergence diagnostics and posterior summary that turn raw draws into
// change-point records.
package inference

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"CPDetect/internal/domain/models"
)

// PriorFamily tags the closed set of supported prior families. The sampler's
// numerics are written against exactly these; new families extend the tag set
// rather than plugging in arbitrary distributions.
type PriorFamily string

const (
	PriorNormal     PriorFamily = "normal"
	PriorHalfNormal PriorFamily = "half-normal"
)

// Prior is one prior specification: Family plus its parameter record.
// For PriorNormal, Mu/Sigma are location and scale; for PriorHalfNormal only
// Sigma (the scale) is meaningful.
type Prior struct {
	Family PriorFamily
	Mu     float64
	Sigma  float64
}

// LikelihoodFamily tags the supported within-segment likelihoods.
type LikelihoodFamily string

const LikelihoodNormal LikelihoodFamily = "normal"

// Model is the immutable specification of one change-point inference run:
// a uniform prior over valid switch indices, weakly-informative priors on the
// two segment means and scales, and an i.i.d. Normal likelihood per segment.
type Model struct {
	N          int
	SwitchLow  int // first valid switch index, inclusive
	SwitchHigh int // last valid switch index, exclusive
	MeanPrior  Prior
	ScalePrior Prior
	Likelihood LikelihoodFamily

	EmpiricalMean float64
	EmpiricalSD   float64
}

// DefaultMinSegmentFraction keeps at least 5% of the series on each side of
// any candidate switch index.
const DefaultMinSegmentFraction = 0.05

// BuildModel constructs the model for a return series. The switch-index prior
// is uniform over [ceil(f*N), N-ceil(f*N)); each segment mean gets a Normal
// prior centered on the empirical mean with ten empirical standard deviations
// of spread; each segment scale gets a half-normal prior at the empirical
// standard deviation.
func BuildModel(returns models.ReturnSeries, minSegmentFraction float64) (*Model, error) {
	if minSegmentFraction <= 0 || minSegmentFraction >= 0.5 {
		minSegmentFraction = DefaultMinSegmentFraction
	}
	n := returns.Len()
	mean := stat.Mean(returns.Values, nil)
	sd := math.Sqrt(stat.Variance(returns.Values, nil))
	if n == 0 || sd == 0 || math.IsNaN(sd) {
		return nil, &DegenerateSeriesError{N: n, StdDev: sd}
	}

	margin := int(math.Ceil(minSegmentFraction * float64(n)))
	if margin < 1 {
		margin = 1
	}
	low, high := margin, n-margin
	if high <= low {
		return nil, &DegenerateSeriesError{N: n, StdDev: sd}
	}

	return &Model{
		N:             n,
		SwitchLow:     low,
		SwitchHigh:    high,
		MeanPrior:     Prior{Family: PriorNormal, Mu: mean, Sigma: 10 * sd},
		ScalePrior:    Prior{Family: PriorHalfNormal, Sigma: sd},
		Likelihood:    LikelihoodNormal,
		EmpiricalMean: mean,
		EmpiricalSD:   sd,
	}, nil
}

// SwitchSupport returns the number of valid switch indices.
func (m *Model) SwitchSupport() int { return m.SwitchHigh - m.SwitchLow }
