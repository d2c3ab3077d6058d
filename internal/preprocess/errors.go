package preprocess

import (
	"fmt"
	"time"
)

// InvalidPriceError reports a non-positive price. Carries the offending
// record so the caller can diagnose without re-reading the input.
type InvalidPriceError struct {
	Index     int
	Timestamp time.Time
	Price     float64
}

func (e *InvalidPriceError) Error() string {
	return fmt.Sprintf("invalid price %.6f at index %d (%s): prices must be > 0",
		e.Price, e.Index, e.Timestamp.Format("2006-01-02"))
}

// DuplicateTimestampError reports a repeated or non-increasing timestamp.
type DuplicateTimestampError struct {
	Index     int
	Timestamp time.Time
}

func (e *DuplicateTimestampError) Error() string {
	return fmt.Sprintf("duplicate or non-increasing timestamp at index %d (%s)",
		e.Index, e.Timestamp.Format("2006-01-02"))
}

// CoverageGapError reports that the series does not reach the declared bounds.
type CoverageGapError struct {
	ExpectedStart time.Time
	ExpectedEnd   time.Time
	ActualStart   time.Time
	ActualEnd     time.Time
}

func (e *CoverageGapError) Error() string {
	return fmt.Sprintf("series covers %s..%s, declared bounds %s..%s not met",
		e.ActualStart.Format("2006-01-02"), e.ActualEnd.Format("2006-01-02"),
		e.ExpectedStart.Format("2006-01-02"), e.ExpectedEnd.Format("2006-01-02"))
}

// EmptySeriesError reports a series too short to transform.
type EmptySeriesError struct {
	Len int
}

func (e *EmptySeriesError) Error() string {
	return fmt.Sprintf("series has %d points, need at least 2", e.Len)
}
