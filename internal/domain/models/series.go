package models

import "time"

// PricePoint is one observation of the raw price series.
type PricePoint struct {
	Timestamp time.Time `json:"date"`
	Price     float64   `json:"price"`
}

// PriceSeries is an ordered series of price observations.
type PriceSeries []PricePoint

// Start returns the timestamp of the first observation.
func (s PriceSeries) Start() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[0].Timestamp
}

// End returns the timestamp of the last observation.
func (s PriceSeries) End() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Timestamp
}

// ReturnSeries holds log-returns derived from a PriceSeries.
// Values[i] = ln(P[i+1]) - ln(P[i]); Timestamps[i] is the date of P[i+1],
// the first observation priced under the new value. Immutable after creation:
// len(Values) == len(PriceSeries) - 1.
type ReturnSeries struct {
	Timestamps []time.Time
	Values     []float64
}

// Len returns the number of return observations.
func (r ReturnSeries) Len() int { return len(r.Values) }

// Gap is a stretch of missing observations between two consecutive points,
// longer than the declared sampling frequency. Reported, not fatal.
type Gap struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}
