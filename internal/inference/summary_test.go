package inference

import (
	"math"
	"testing"

	"CPDetect/internal/domain/models"
)

func ensembleFromTaus(taus []int, meanBefore, meanAfter float64) *models.Ensemble {
	half := len(taus) / 2
	mk := func(part []int) models.Chain {
		draws := make([]models.Sample, len(part))
		for i, tau := range part {
			draws[i] = models.Sample{
				SwitchIndex: tau,
				MeanBefore:  meanBefore,
				MeanAfter:   meanAfter,
				ScaleBefore: 0.01,
				ScaleAfter:  0.01,
			}
		}
		return models.Chain{Draws: draws}
	}
	return &models.Ensemble{Chains: []models.Chain{mk(taus[:half]), mk(taus[half:])}}
}

func repeatTaus(pairs ...[2]int) []int {
	var out []int
	for _, p := range pairs {
		for i := 0; i < p[1]; i++ {
			out = append(out, p[0])
		}
	}
	return out
}

func zeroReturns(n int) models.ReturnSeries {
	return returnsOf(make([]float64, n))
}

// supportModel is the minimal model a summary needs: the switch support.
func supportModel(n, low, high int) *Model {
	return &Model{N: n, SwitchLow: low, SwitchHigh: high}
}

func TestSummarizeSingleMode(t *testing.T) {
	taus := repeatTaus([2]int{98, 1}, [2]int{99, 5}, [2]int{100, 30}, [2]int{101, 5}, [2]int{102, 1})
	e := ensembleFromTaus(taus, -0.01, 0.02)
	rs := zeroReturns(200)
	diag := models.ConvergenceReport{OK: true}

	records := Summarize(e, supportModel(200, 10, 190), rs, diag, DefaultSummaryOptions())
	if len(records) != 1 {
		t.Fatalf("expected a single record, got %d", len(records))
	}
	r := records[0]
	if !r.Date.Equal(rs.Timestamps[100]) {
		t.Fatalf("mode should map to index 100, got %v", r.Date)
	}
	if r.DateCILow.Before(rs.Timestamps[98]) || r.DateCIHigh.After(rs.Timestamps[102]) {
		t.Fatalf("credible interval [%v, %v] escapes the posterior support", r.DateCILow, r.DateCIHigh)
	}
	if r.DateCILow.After(r.Date) || r.DateCIHigh.Before(r.Date) {
		t.Fatalf("credible interval must bracket the mode")
	}
	if r.Confidence != models.ConfidenceHigh {
		t.Fatalf("sharp posterior should be high confidence, got %q", r.Confidence)
	}
	if !r.ConvergenceOK {
		t.Fatalf("diagnostics verdict should be carried onto the record")
	}

	wantImpact := (math.Exp(0.02) - math.Exp(-0.01)) / math.Exp(-0.01) * 100
	if math.Abs(r.ImpactPct-wantImpact) > 1e-9 {
		t.Fatalf("impact_pct = %v, want %v", r.ImpactPct, wantImpact)
	}
}

func TestSummarizeNarrowConcentrationIsHighConfidence(t *testing.T) {
	// All mass split evenly over two adjacent indices out of a 180-wide
	// support: the sharpest result a long series can produce, not a flat one.
	taus := repeatTaus([2]int{100, 100}, [2]int{101, 100})
	e := ensembleFromTaus(taus, -0.01, 0.02)
	rs := zeroReturns(200)

	records := Summarize(e, supportModel(200, 10, 190), rs, models.ConvergenceReport{OK: true}, DefaultSummaryOptions())
	if len(records) != 1 {
		t.Fatalf("expected a single record, got %d", len(records))
	}
	if records[0].Confidence != models.ConfidenceHigh {
		t.Fatalf("mass on 2 of 180 indices must be high confidence, got %q", records[0].Confidence)
	}
	if !records[0].Date.Equal(rs.Timestamps[100]) && !records[0].Date.Equal(rs.Timestamps[101]) {
		t.Fatalf("mode should map into the concentrated pair, got %v", records[0].Date)
	}
}

func TestSummarizeFlatPosterior(t *testing.T) {
	var taus []int
	for rep := 0; rep < 4; rep++ {
		for tau := 10; tau < 190; tau++ {
			taus = append(taus, tau)
		}
	}
	e := ensembleFromTaus(taus, 0.0, 0.0)

	records := Summarize(e, supportModel(200, 10, 190), zeroReturns(200), models.ConvergenceReport{OK: true}, DefaultSummaryOptions())
	if len(records) == 0 {
		t.Fatalf("a flat posterior still yields a record")
	}
	for _, r := range records {
		if r.Confidence != models.ConfidenceLow {
			t.Fatalf("flat posterior must be flagged low confidence, got %q", r.Confidence)
		}
	}
}

func TestSummarizeBimodal(t *testing.T) {
	taus := repeatTaus(
		[2]int{59, 10}, [2]int{60, 100}, [2]int{61, 10},
		[2]int{139, 10}, [2]int{140, 100}, [2]int{141, 10},
	)
	e := ensembleFromTaus(taus, -0.01, 0.01)
	rs := zeroReturns(200)

	records := Summarize(e, supportModel(200, 10, 190), rs, models.ConvergenceReport{OK: true}, DefaultSummaryOptions())
	if len(records) != 2 {
		t.Fatalf("expected two records for two well-separated modes, got %d", len(records))
	}
	if !records[0].Date.Equal(rs.Timestamps[60]) || !records[1].Date.Equal(rs.Timestamps[140]) {
		t.Fatalf("modes should map to indices 60 and 140, got %v and %v", records[0].Date, records[1].Date)
	}
}

func TestSummarizeDropsMinorMode(t *testing.T) {
	taus := repeatTaus(
		[2]int{59, 20}, [2]int{60, 200}, [2]int{61, 20},
		[2]int{140, 10},
	)
	e := ensembleFromTaus(taus, -0.01, 0.01)
	rs := zeroReturns(200)

	records := Summarize(e, supportModel(200, 10, 190), rs, models.ConvergenceReport{OK: true}, DefaultSummaryOptions())
	if len(records) != 1 {
		t.Fatalf("a mode far below the mass ratio should be dropped, got %d records", len(records))
	}
	if !records[0].Date.Equal(rs.Timestamps[60]) {
		t.Fatalf("surviving mode should be index 60, got %v", records[0].Date)
	}
}

func TestSummarizeNonConvergedVerdict(t *testing.T) {
	taus := repeatTaus([2]int{100, 50})
	e := ensembleFromTaus(taus, -0.01, 0.02)

	records := Summarize(e, supportModel(200, 10, 190), zeroReturns(200), models.ConvergenceReport{OK: false}, DefaultSummaryOptions())
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
	if records[0].ConvergenceOK {
		t.Fatalf("non-converged diagnostics must mark the record")
	}
}

func TestImpactPctSign(t *testing.T) {
	if impactPct(-0.01, 0.02) <= 0 {
		t.Fatalf("upward mean shift should give positive impact")
	}
	if impactPct(0.02, -0.01) >= 0 {
		t.Fatalf("downward mean shift should give negative impact")
	}
	if impactPct(0.015, 0.015) != 0 {
		t.Fatalf("no shift should give zero impact")
	}
}

func TestNormalizedEntropyBounds(t *testing.T) {
	flat := []float64{5, 5, 5, 5, 5}
	if h := normalizedEntropy(flat, 5); math.Abs(h-1) > 1e-12 {
		t.Fatalf("uniform histogram over the full support should have normalized entropy 1, got %v", h)
	}
	sharp := []float64{0, 0, 100, 0, 0}
	if h := normalizedEntropy(sharp, 5); h != 0 {
		t.Fatalf("point-mass histogram should have entropy 0, got %v", h)
	}
	narrow := []float64{50, 50}
	if h := normalizedEntropy(narrow, 180); h > 0.2 {
		t.Fatalf("two occupied indices of a wide support should stay near 0, got %v", h)
	}
}
