package ingest

import (
	"strings"
	"testing"
	"time"
)

func TestReadPricesMixedFormats(t *testing.T) {
	in := strings.NewReader(`Date,Price
20-May-87,18.63
1987-05-22,18.45
"1987-05-25","1,018.55"
not-a-date,19.00
1987-05-26,n/a
`)
	series, err := ReadPrices(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected 3 valid rows, got %d", len(series))
	}
	if !series[0].Timestamp.Equal(time.Date(1987, 5, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("day-month-year date parsed wrong: %v", series[0].Timestamp)
	}
	if series[2].Price != 1018.55 {
		t.Fatalf("comma-grouped price parsed wrong: %v", series[2].Price)
	}
}

func TestReadPricesSortsByDate(t *testing.T) {
	in := strings.NewReader(`Date,Price
1987-05-25,19.10
1987-05-20,18.63
1987-05-22,18.45
`)
	series, err := ReadPrices(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < len(series); i++ {
		if !series[i-1].Timestamp.Before(series[i].Timestamp) {
			t.Fatalf("series not sorted at %d", i)
		}
	}
}

func TestReadPricesNothingValid(t *testing.T) {
	in := strings.NewReader(`Date,Price
nope,abc
also-bad,xyz
`)
	if _, err := ReadPrices(in); err == nil {
		t.Fatalf("expected an error when no row parses")
	}
}

func TestReadPricesMissingColumns(t *testing.T) {
	in := strings.NewReader("Timestamp,Close\n1987-05-20,18.63\n")
	if _, err := ReadPrices(in); err == nil {
		t.Fatalf("expected an error for missing Date/Price columns")
	}
}

func TestReadEvents(t *testing.T) {
	in := strings.NewReader(`date,event,category
2020-03-06,OPEC+ deal collapses,supply
2014-11-27,OPEC maintains output,supply
2020-04-20,WTI futures go negative,
bad-date,ignored row,x
`)
	events, err := ReadEvents(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Description != "OPEC maintains output" {
		t.Fatalf("events not sorted by date: first is %q", events[0].Description)
	}
	if events[1].Category != "supply" {
		t.Fatalf("category column not carried: %q", events[1].Category)
	}
}

func TestReadEventsWithoutCategory(t *testing.T) {
	in := strings.NewReader("date,event\n2022-02-24,invasion of Ukraine\n")
	events, err := ReadEvents(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 || events[0].Category != "" {
		t.Fatalf("unexpected events: %+v", events)
	}
}
