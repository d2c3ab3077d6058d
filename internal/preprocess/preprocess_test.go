package preprocess

import (
	"errors"
	"math"
	"testing"
	"time"

	"CPDetect/internal/domain/models"
)

func day(n int) time.Time {
	return time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seriesFromPrices(prices []float64) models.PriceSeries {
	s := make(models.PriceSeries, len(prices))
	for i, p := range prices {
		s[i] = models.PricePoint{Timestamp: day(i), Price: p}
	}
	return s
}

func TestLogReturnsLength(t *testing.T) {
	s := seriesFromPrices([]float64{10, 11, 12, 11.5, 13})
	rs, err := LogReturns(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rs.Len() != len(s)-1 {
		t.Fatalf("expected %d returns, got %d", len(s)-1, rs.Len())
	}
	if !rs.Timestamps[0].Equal(day(1)) {
		t.Fatalf("first return should carry second price date, got %v", rs.Timestamps[0])
	}
}

func TestLogReturnsRoundTrip(t *testing.T) {
	prices := []float64{20.5, 21.3, 19.8, 22.1, 22.1, 25.0}
	s := seriesFromPrices(prices)
	rs, err := LogReturns(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// exp(cumsum(returns)) must reconstruct the price ratios P[t]/P[0].
	cum := 0.0
	for i, r := range rs.Values {
		cum += r
		want := prices[i+1] / prices[0]
		got := math.Exp(cum)
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("round trip broken at %d: got %v want %v", i, got, want)
		}
	}
}

func TestLogReturnsZeroPrice(t *testing.T) {
	s := seriesFromPrices([]float64{10, 0, 12})
	_, err := LogReturns(s)
	var perr *InvalidPriceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected InvalidPriceError, got %v", err)
	}
	if perr.Index != 1 {
		t.Fatalf("expected offending index 1, got %d", perr.Index)
	}
}

func TestValidateDuplicateTimestamp(t *testing.T) {
	s := seriesFromPrices([]float64{10, 11, 12})
	s[2].Timestamp = s[1].Timestamp
	var derr *DuplicateTimestampError
	if !errors.As(Validate(s), &derr) {
		t.Fatalf("expected DuplicateTimestampError")
	}
}

func TestLogReturnsTooShort(t *testing.T) {
	var eerr *EmptySeriesError
	if _, err := LogReturns(seriesFromPrices([]float64{10})); !errors.As(err, &eerr) {
		t.Fatalf("expected EmptySeriesError, got %v", err)
	}
}

func TestValidateCoverageBounds(t *testing.T) {
	s := seriesFromPrices([]float64{10, 11, 12, 13})
	_, err := ValidateCoverage(s, day(-5), day(3), 24*time.Hour)
	var cerr *CoverageGapError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected CoverageGapError, got %v", err)
	}
}

func TestValidateCoverageGaps(t *testing.T) {
	s := seriesFromPrices([]float64{10, 11, 12, 13})
	s[3].Timestamp = day(10) // hole between day 2 and day 10
	gaps, err := ValidateCoverage(s, day(0), day(10), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gaps) != 1 {
		t.Fatalf("expected 1 gap, got %d", len(gaps))
	}
	if !gaps[0].From.Equal(day(2)) || !gaps[0].To.Equal(day(10)) {
		t.Fatalf("unexpected gap %+v", gaps[0])
	}
}
