package inference

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"CPDetect/internal/domain/models"
)

// Thresholds gate the overall convergence verdict.
type Thresholds struct {
	RHatMax     float64 // default 1.01
	ESSPerChain float64 // default 100
}

// DefaultThresholds returns the standard gate.
func DefaultThresholds() Thresholds {
	return Thresholds{RHatMax: 1.01, ESSPerChain: 100}
}

// CheckConvergence computes split-Rhat and effective sample size for every
// scalar latent across the ensemble's chains. It never fails: lack of
// convergence is a reported quality signal that downstream summaries carry
// as convergence_ok=false.
func CheckConvergence(e *models.Ensemble, th Thresholds) models.ConvergenceReport {
	if th.RHatMax <= 0 {
		th.RHatMax = 1.01
	}
	if th.ESSPerChain <= 0 {
		th.ESSPerChain = 100
	}

	report := models.ConvergenceReport{Variables: make(map[string]models.VariableDiag), OK: true}
	if len(e.Chains) < 2 || e.NumDraws() < 4 {
		report.OK = false
		return report
	}

	essFloor := th.ESSPerChain * float64(len(e.Chains))
	for name, extract := range scalarVariables {
		seqs := make([][]float64, len(e.Chains))
		for i, c := range e.Chains {
			seq := make([]float64, len(c.Draws))
			for j, s := range c.Draws {
				seq[j] = extract(s)
			}
			seqs[i] = seq
		}
		d := models.VariableDiag{RHat: splitRHat(seqs), ESS: effectiveSampleSize(seqs)}
		report.Variables[name] = d
		if d.RHat > th.RHatMax || d.ESS < essFloor {
			report.OK = false
		}
	}
	return report
}

var scalarVariables = map[string]func(models.Sample) float64{
	"switch_index": func(s models.Sample) float64 { return float64(s.SwitchIndex) },
	"mean_before":  func(s models.Sample) float64 { return s.MeanBefore },
	"mean_after":   func(s models.Sample) float64 { return s.MeanAfter },
	"scale_before": func(s models.Sample) float64 { return s.ScaleBefore },
	"scale_after":  func(s models.Sample) float64 { return s.ScaleAfter },
}

// splitHalves doubles the chain count by halving each chain, so slow drift
// within a single chain shows up as between-chain disagreement.
func splitHalves(seqs [][]float64) [][]float64 {
	halves := make([][]float64, 0, 2*len(seqs))
	for _, s := range seqs {
		h := len(s) / 2
		halves = append(halves, s[:h], s[h:2*h])
	}
	return halves
}

// splitRHat is the potential scale reduction statistic on split chains:
// sqrt of (weighted within+between variance) over within variance. 1.0 for
// perfectly mixed (or identical) chains.
func splitRHat(seqs [][]float64) float64 {
	halves := splitHalves(seqs)
	n := float64(len(halves[0]))

	means := make([]float64, len(halves))
	vars := make([]float64, len(halves))
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		vars[i] = stat.Variance(h, nil)
	}
	w := stat.Mean(vars, nil)
	b := n * stat.Variance(means, nil)
	if w == 0 {
		return 1
	}
	varPlus := (n-1)/n*w + b/n
	return math.Sqrt(varPlus / w)
}

// effectiveSampleSize estimates the independent-equivalent draw count across
// all chains, using Geyer's initial monotone positive sequence over paired
// autocorrelations.
func effectiveSampleSize(seqs [][]float64) float64 {
	halves := splitHalves(seqs)
	m := len(halves)
	n := len(halves[0])
	total := float64(m * n)

	vars := make([]float64, m)
	means := make([]float64, m)
	for i, h := range halves {
		means[i] = stat.Mean(h, nil)
		vars[i] = stat.Variance(h, nil)
	}
	w := stat.Mean(vars, nil)
	b := float64(n) * stat.Variance(means, nil)
	if w == 0 {
		return total // constant sequences carry no autocorrelation penalty
	}
	varPlus := float64(n-1)/float64(n)*w + b/float64(n)

	// Mean autocovariance across chains at each lag.
	acov := func(lag int) float64 {
		var s float64
		for i, h := range halves {
			var a float64
			for t := 0; t+lag < n; t++ {
				a += (h[t] - means[i]) * (h[t+lag] - means[i])
			}
			s += a / float64(n)
		}
		return s / float64(m)
	}

	rho := func(lag int) float64 {
		return 1 - (w-acov(lag))/varPlus
	}

	tau := 0.0
	prevPair := math.Inf(1)
	for lag := 0; lag+1 < n; lag += 2 {
		pair := rho(lag) + rho(lag + 1)
		if pair < 0 {
			break
		}
		if pair > prevPair {
			pair = prevPair
		}
		prevPair = pair
		tau += pair
	}
	tau = 2*tau - 1
	if tau < 1 {
		tau = 1
	}
	ess := total / tau
	if ess > total {
		ess = total
	}
	return ess
}
