package inference

import (
	"testing"

	"golang.org/x/exp/rand"

	"CPDetect/internal/domain/models"
)

func chainFromValues(values []float64) models.Chain {
	draws := make([]models.Sample, len(values))
	for i, v := range values {
		tau := int(v)
		if tau < 0 {
			tau = -tau
		}
		draws[i] = models.Sample{
			SwitchIndex: tau,
			MeanBefore:  v,
			MeanAfter:   v,
			ScaleBefore: 1 + v*v,
			ScaleAfter:  1 + v*v,
		}
	}
	return models.Chain{Draws: draws}
}

func iidSequence(n int, seed uint64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64()
	}
	return out
}

func TestIdenticalChainsRHatNearOne(t *testing.T) {
	seq := iidSequence(500, 21)
	e := &models.Ensemble{Chains: []models.Chain{chainFromValues(seq), chainFromValues(seq)}}

	report := CheckConvergence(e, DefaultThresholds())
	d, ok := report.Variables["mean_before"]
	if !ok {
		t.Fatalf("mean_before diagnostic missing")
	}
	if d.RHat < 0.98 || d.RHat > 1.01 {
		t.Fatalf("identical well-mixed chains should give rhat ~1.0, got %v", d.RHat)
	}
	if !report.OK {
		t.Fatalf("report should pass the gate: %+v", report.Variables)
	}
}

func TestShiftedChainsFailGate(t *testing.T) {
	seq := iidSequence(500, 33)
	shifted := make([]float64, len(seq))
	for i, v := range seq {
		shifted[i] = v + 5
	}
	e := &models.Ensemble{Chains: []models.Chain{chainFromValues(seq), chainFromValues(shifted)}}

	report := CheckConvergence(e, DefaultThresholds())
	d := report.Variables["mean_before"]
	if d.RHat <= 1.01 {
		t.Fatalf("disagreeing chains should exceed the rhat gate, got %v", d.RHat)
	}
	if report.OK {
		t.Fatalf("report must fail overall when one variable fails")
	}
}

func TestConstantChainsFullESS(t *testing.T) {
	values := make([]float64, 250)
	for i := range values {
		values[i] = 3
	}
	e := &models.Ensemble{Chains: []models.Chain{chainFromValues(values), chainFromValues(values)}}

	report := CheckConvergence(e, DefaultThresholds())
	d := report.Variables["mean_after"]
	if d.RHat != 1 {
		t.Fatalf("constant chains should give rhat exactly 1, got %v", d.RHat)
	}
	if d.ESS != 500 {
		t.Fatalf("constant chains should give full ess 500, got %v", d.ESS)
	}
	if !report.OK {
		t.Fatalf("constant ensemble should pass the gate")
	}
}

func TestAutocorrelationShrinksESS(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	sticky := make([]float64, 1000)
	for i := 1; i < len(sticky); i++ {
		sticky[i] = 0.95*sticky[i-1] + rng.NormFloat64()
	}

	essSticky := effectiveSampleSize([][]float64{sticky})
	essIID := effectiveSampleSize([][]float64{iidSequence(1000, 6)})
	if essSticky >= essIID/2 {
		t.Fatalf("autocorrelated chain should lose most of its ess: sticky=%v iid=%v", essSticky, essIID)
	}
}

func TestCheckConvergenceDegenerateEnsembles(t *testing.T) {
	one := &models.Ensemble{Chains: []models.Chain{chainFromValues(iidSequence(100, 1))}}
	if CheckConvergence(one, DefaultThresholds()).OK {
		t.Fatalf("a single chain can never pass the gate")
	}

	tiny := &models.Ensemble{Chains: []models.Chain{
		chainFromValues([]float64{1, 2}),
		chainFromValues([]float64{1, 2}),
	}}
	if CheckConvergence(tiny, DefaultThresholds()).OK {
		t.Fatalf("too few draws can never pass the gate")
	}
}
