package inference

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"CPDetect/internal/domain/models"
)

// SummaryOptions tunes the posterior reduction.
type SummaryOptions struct {
	CredibleMass  float64 // equal-tailed interval mass, default 0.94
	FlatThreshold float64 // normalized-entropy cutoff for "low" confidence, default 0.90
	ModeMassRatio float64 // keep secondary modes with at least this share of the top mode's mass, default 0.2
}

// DefaultSummaryOptions returns the standard reduction settings.
func DefaultSummaryOptions() SummaryOptions {
	return SummaryOptions{CredibleMass: 0.94, FlatThreshold: 0.90, ModeMassRatio: 0.2}
}

// Summarize pools the ensemble's draws and reduces them to one
// ChangePointRecord per posterior mode of the switch index. A multi-modal
// marginal yields multiple records; a marginal near-uniform over the model's
// full switch support is reported with low confidence instead of being passed
// off as a certain single break. The diagnostics verdict is threaded onto
// every record; pooling happens regardless of convergence.
func Summarize(e *models.Ensemble, m *Model, returns models.ReturnSeries, diag models.ConvergenceReport, opts SummaryOptions) []models.ChangePointRecord {
	if opts.CredibleMass <= 0 || opts.CredibleMass >= 1 {
		opts.CredibleMass = 0.94
	}
	if opts.FlatThreshold <= 0 {
		opts.FlatThreshold = 0.90
	}
	if opts.ModeMassRatio <= 0 {
		opts.ModeMassRatio = 0.2
	}

	pooled := e.Pooled()
	if len(pooled) == 0 {
		return nil
	}

	n := returns.Len()
	counts := make([]float64, n)
	lo, hi := n, 0
	for _, s := range pooled {
		counts[s.SwitchIndex]++
		if s.SwitchIndex < lo {
			lo = s.SwitchIndex
		}
		if s.SwitchIndex > hi {
			hi = s.SwitchIndex
		}
	}
	flat := normalizedEntropy(counts[lo:hi+1], m.SwitchSupport()) > opts.FlatThreshold
	confidence := models.ConfidenceHigh
	if flat {
		confidence = models.ConfidenceLow
	}

	basins := findBasins(counts, lo, hi, opts.ModeMassRatio)

	records := make([]models.ChangePointRecord, 0, len(basins))
	for _, b := range basins {
		var taus []int
		var mb, ma []float64
		for _, s := range pooled {
			if s.SwitchIndex >= b.from && s.SwitchIndex <= b.to {
				taus = append(taus, s.SwitchIndex)
				mb = append(mb, s.MeanBefore)
				ma = append(ma, s.MeanAfter)
			}
		}
		if len(taus) == 0 {
			continue
		}
		sort.Ints(taus)

		ciLow := taus[quantileIndex(len(taus), (1-opts.CredibleMass)/2)]
		ciHigh := taus[quantileIndex(len(taus), 1-(1-opts.CredibleMass)/2)]
		meanBefore := stat.Mean(mb, nil)
		meanAfter := stat.Mean(ma, nil)

		records = append(records, models.ChangePointRecord{
			Date:          returns.Timestamps[b.peak],
			DateCILow:     returns.Timestamps[ciLow],
			DateCIHigh:    returns.Timestamps[ciHigh],
			MeanBefore:    meanBefore,
			MeanAfter:     meanAfter,
			ImpactPct:     impactPct(meanBefore, meanAfter),
			ConvergenceOK: diag.OK,
			Confidence:    confidence,
		})
	}
	return records
}

// impactPct maps the segment-mean shift back to the price scale:
// (exp(after) - exp(before)) / exp(before) * 100.
func impactPct(before, after float64) float64 {
	return (math.Exp(after) - math.Exp(before)) / math.Exp(before) * 100
}

type basin struct {
	from, to int
	peak     int // argmax of raw counts inside the basin
	mass     float64
}

// findBasins locates posterior modes by peak detection on a smoothed copy of
// the index histogram, then carves the support at the minima between adjacent
// peaks. Secondary peaks survive only with mass comparable to the top one,
// so sampling noise does not split a single broad mode.
func findBasins(counts []float64, lo, hi int, massRatio float64) []basin {
	support := hi - lo + 1
	window := support / 25
	if window < 1 {
		window = 1
	}
	smoothed := movingAverage(counts, lo, hi, window)

	var peaks []int
	for i := lo; i <= hi; i++ {
		left := math.Inf(-1)
		right := math.Inf(-1)
		if i > lo {
			left = smoothed[i-1]
		}
		if i < hi {
			right = smoothed[i+1]
		}
		if smoothed[i] > 0 && smoothed[i] >= left && smoothed[i] > right {
			peaks = append(peaks, i)
		}
	}
	if len(peaks) == 0 {
		peaks = []int{argmax(counts, lo, hi)}
	}

	// Merge peaks that sit closer than the smoothing window.
	merged := []int{peaks[0]}
	for _, p := range peaks[1:] {
		if p-merged[len(merged)-1] <= window {
			if smoothed[p] > smoothed[merged[len(merged)-1]] {
				merged[len(merged)-1] = p
			}
			continue
		}
		merged = append(merged, p)
	}

	basins := make([]basin, len(merged))
	for i, p := range merged {
		from, to := lo, hi
		if i > 0 {
			from = argmin(smoothed, merged[i-1], p) + 1
			basins[i-1].to = from - 1
		}
		basins[i] = basin{from: from, to: to, peak: p}
	}
	for i := range basins {
		basins[i].peak = argmax(counts, basins[i].from, basins[i].to)
		for j := basins[i].from; j <= basins[i].to; j++ {
			basins[i].mass += counts[j]
		}
	}

	top := 0.0
	for _, b := range basins {
		if b.mass > top {
			top = b.mass
		}
	}
	kept := basins[:0]
	for _, b := range basins {
		if b.mass >= massRatio*top {
			kept = append(kept, b)
		}
	}
	return kept
}

func movingAverage(counts []float64, lo, hi, window int) []float64 {
	out := make([]float64, len(counts))
	for i := lo; i <= hi; i++ {
		var s float64
		var n int
		for j := i - window; j <= i+window; j++ {
			if j < lo || j > hi {
				continue
			}
			s += counts[j]
			n++
		}
		out[i] = s / float64(n)
	}
	return out
}

func argmax(xs []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if xs[i] > xs[best] {
			best = i
		}
	}
	return best
}

func argmin(xs []float64, from, to int) int {
	best := from
	for i := from + 1; i <= to; i++ {
		if xs[i] < xs[best] {
			best = i
		}
	}
	return best
}

// normalizedEntropy is H(p)/log(support) over the histogram. 1 only when the
// mass spreads uniformly over the whole valid switch support; a posterior
// concentrated on a few adjacent indices stays near 0 no matter how the draws
// split among them.
func normalizedEntropy(counts []float64, support int) float64 {
	if support < 2 {
		return 0
	}
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	var h float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := c / total
		h -= p * math.Log(p)
	}
	return h / math.Log(float64(support))
}

// quantileIndex maps a probability to an index into a sorted sample of size n.
func quantileIndex(n int, q float64) int {
	i := int(math.Round(q * float64(n-1)))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}
