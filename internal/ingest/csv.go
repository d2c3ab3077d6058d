// Package ingest loads the raw CSV inputs the engine's callers provide: the
// historical price table and the curated event table. Parsing is tolerant of
// the messy formats found in historical exports (mixed date layouts,
// comma-grouped prices); rows that stay unparseable are counted and only
// fatal when nothing valid remains.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"CPDetect/internal/domain/models"
	"CPDetect/pkg/util"
)

// LoadPrices reads a price CSV with Date and Price columns.
func LoadPrices(path string) (models.PriceSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prices: %w", err)
	}
	defer f.Close()
	return ReadPrices(f)
}

// ReadPrices parses price rows from r. Rows are sorted by date; duplicate
// handling is left to the preprocessor so the offending record is reported.
func ReadPrices(r io.Reader) (models.PriceSeries, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	dateCol, priceCol := indexOf(header, "Date", "date"), indexOf(header, "Price", "price")
	if dateCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("expected columns: Date, Price")
	}

	series := make(models.PriceSeries, 0, len(rows))
	var invalidDate, invalidPrice int
	for _, row := range rows {
		d, ok := util.ParseDate(row[dateCol])
		if !ok {
			invalidDate++
			continue
		}
		text := strings.TrimSpace(strings.ReplaceAll(row[priceCol], ",", ""))
		price, err := strconv.ParseFloat(text, 64)
		if err != nil {
			invalidPrice++
			continue
		}
		series = append(series, models.PricePoint{Timestamp: d, Price: price})
	}

	if len(series) == 0 && (invalidDate > 0 || invalidPrice > 0) {
		return nil, fmt.Errorf("no valid price rows after parsing (invalid dates: %d, invalid prices: %d)",
			invalidDate, invalidPrice)
	}

	sort.Slice(series, func(i, j int) bool { return series[i].Timestamp.Before(series[j].Timestamp) })
	return series, nil
}

// LoadEvents reads the event CSV with date and event columns, and an
// optional category column.
func LoadEvents(path string) ([]models.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()
	return ReadEvents(f)
}

// ReadEvents parses event rows from r, sorted by date.
func ReadEvents(r io.Reader) ([]models.Event, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}
	dateCol, eventCol := indexOf(header, "date", "Date"), indexOf(header, "event", "Event")
	if dateCol < 0 || eventCol < 0 {
		return nil, fmt.Errorf("expected columns: date, event")
	}
	categoryCol := indexOf(header, "category", "Category")

	events := make([]models.Event, 0, len(rows))
	var invalidDate, invalidEvent int
	for _, row := range rows {
		d, ok := util.ParseDate(row[dateCol])
		if !ok {
			invalidDate++
			continue
		}
		desc := strings.TrimSpace(row[eventCol])
		if desc == "" {
			invalidEvent++
			continue
		}
		e := models.Event{Date: d, Description: desc}
		if categoryCol >= 0 {
			e.Category = strings.TrimSpace(row[categoryCol])
		}
		events = append(events, e)
	}

	if len(events) == 0 && (invalidDate > 0 || invalidEvent > 0) {
		return nil, fmt.Errorf("no valid event rows after parsing (invalid dates: %d, invalid events: %d)",
			invalidDate, invalidEvent)
	}

	sort.Slice(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

func readTable(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty csv")
	}
	header := records[0]
	rows := make([][]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) < len(header) {
			continue
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

func indexOf(header []string, names ...string) int {
	for i, h := range header {
		for _, n := range names {
			if strings.TrimSpace(h) == n {
				return i
			}
		}
	}
	return -1
}
