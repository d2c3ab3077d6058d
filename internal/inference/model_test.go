package inference

import (
	"errors"
	"math"
	"testing"
	"time"

	"golang.org/x/exp/rand"

	"CPDetect/internal/domain/models"
)

func returnsOf(values []float64) models.ReturnSeries {
	ts := make([]time.Time, len(values))
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range ts {
		ts[i] = base.AddDate(0, 0, i)
	}
	return models.ReturnSeries{Timestamps: ts, Values: values}
}

// syntheticReturns draws a two-segment return series with a mean shift at
// breakAt, reproducible via seed.
func syntheticReturns(n, breakAt int, muBefore, muAfter, sd float64, seed uint64) models.ReturnSeries {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	for i := range values {
		mu := muBefore
		if i >= breakAt {
			mu = muAfter
		}
		values[i] = mu + sd*rng.NormFloat64()
	}
	return returnsOf(values)
}

func TestBuildModelMargins(t *testing.T) {
	rs := syntheticReturns(100, 50, -0.01, 0.02, 0.01, 1)
	m, err := BuildModel(rs, 0.05)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.SwitchLow != 5 || m.SwitchHigh != 95 {
		t.Fatalf("expected support [5, 95), got [%d, %d)", m.SwitchLow, m.SwitchHigh)
	}
	if m.SwitchSupport() != 90 {
		t.Fatalf("expected support size 90, got %d", m.SwitchSupport())
	}
}

func TestBuildModelPriors(t *testing.T) {
	rs := syntheticReturns(300, 150, 0.0, 0.0, 0.02, 2)
	m, err := BuildModel(rs, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MeanPrior.Family != PriorNormal || m.ScalePrior.Family != PriorHalfNormal {
		t.Fatalf("unexpected prior families %q/%q", m.MeanPrior.Family, m.ScalePrior.Family)
	}
	if m.MeanPrior.Mu != m.EmpiricalMean {
		t.Fatalf("mean prior should center on the empirical mean")
	}
	if math.Abs(m.MeanPrior.Sigma-10*m.EmpiricalSD) > 1e-12 {
		t.Fatalf("mean prior spread should be 10 empirical sd, got %v", m.MeanPrior.Sigma)
	}
	if m.ScalePrior.Sigma != m.EmpiricalSD {
		t.Fatalf("scale prior should sit at the empirical sd")
	}
}

func TestBuildModelConstantSeries(t *testing.T) {
	values := make([]float64, 50)
	for i := range values {
		values[i] = 0.01
	}
	var derr *DegenerateSeriesError
	if _, err := BuildModel(returnsOf(values), 0.05); !errors.As(err, &derr) {
		t.Fatalf("expected DegenerateSeriesError, got %v", err)
	}
}

func TestBuildModelTooShort(t *testing.T) {
	var derr *DegenerateSeriesError
	if _, err := BuildModel(returnsOf([]float64{0.1, -0.1}), 0.05); !errors.As(err, &derr) {
		t.Fatalf("expected DegenerateSeriesError for a two-point series")
	}
}
