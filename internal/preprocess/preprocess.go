// Package preprocess turns a raw ordered price series into the stationary
// log-return series the change-point model consumes, and exposes the input
// validation and stationarity diagnostics that gate an inference run.
package preprocess

import (
	"math"
	"time"

	"CPDetect/internal/domain/models"
)

// Validate checks ordering and positivity of the raw series. First offending
// record wins; validation errors are fatal to the run.
func Validate(series models.PriceSeries) error {
	for i, p := range series {
		if p.Price <= 0 || math.IsNaN(p.Price) || math.IsInf(p.Price, 0) {
			return &InvalidPriceError{Index: i, Timestamp: p.Timestamp, Price: p.Price}
		}
		if i > 0 && !series[i-1].Timestamp.Before(p.Timestamp) {
			return &DuplicateTimestampError{Index: i, Timestamp: p.Timestamp}
		}
	}
	return nil
}

// ValidateCoverage checks the declared bounds and reports internal gaps wider
// than freq. Bounds not covered is fatal; gaps are informational.
func ValidateCoverage(series models.PriceSeries, expectedStart, expectedEnd time.Time, freq time.Duration) ([]models.Gap, error) {
	if len(series) == 0 {
		return nil, &EmptySeriesError{Len: 0}
	}
	if series.Start().After(expectedStart) || series.End().Before(expectedEnd) {
		return nil, &CoverageGapError{
			ExpectedStart: expectedStart,
			ExpectedEnd:   expectedEnd,
			ActualStart:   series.Start(),
			ActualEnd:     series.End(),
		}
	}

	var gaps []models.Gap
	for i := 1; i < len(series); i++ {
		if series[i].Timestamp.Sub(series[i-1].Timestamp) > freq {
			gaps = append(gaps, models.Gap{From: series[i-1].Timestamp, To: series[i].Timestamp})
		}
	}
	return gaps, nil
}

// LogReturns derives the return series: ln(P[t]) - ln(P[t-1]). The result has
// exactly len(series)-1 observations, each stamped with the later date.
func LogReturns(series models.PriceSeries) (models.ReturnSeries, error) {
	if len(series) < 2 {
		return models.ReturnSeries{}, &EmptySeriesError{Len: len(series)}
	}
	if err := Validate(series); err != nil {
		return models.ReturnSeries{}, err
	}

	rs := models.ReturnSeries{
		Timestamps: make([]time.Time, len(series)-1),
		Values:     make([]float64, len(series)-1),
	}
	for i := 1; i < len(series); i++ {
		rs.Timestamps[i-1] = series[i].Timestamp
		rs.Values[i-1] = math.Log(series[i].Price) - math.Log(series[i-1].Price)
	}
	return rs, nil
}
