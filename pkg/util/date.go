package util

import (
	"strings"
	"time"
)

// dateLayouts are tried in order after the ISO fast path. Historical price
// exports mix several of these in one file.
var dateLayouts = []string{
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"2-Jan-06",
	"2-Jan-2006",
}

// ParseDate parses a calendar date in any of the supported layouts.
// Returns (date, true) if any worked.
func ParseDate(s string) (time.Time, bool) {
	text := strings.TrimSpace(s)
	if text == "" {
		return time.Time{}, false
	}

	// Fast path: ISO-like values (YYYY-MM-DD, YYYY-MM-DDTHH:MM:SS).
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	if t, err := time.Parse("2006-01-02T15:04:05", text); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseDateDefault parses a date or returns def if empty/invalid.
func ParseDateDefault(s string, def time.Time) time.Time {
	if t, ok := ParseDate(s); ok {
		return t
	}
	return def
}
