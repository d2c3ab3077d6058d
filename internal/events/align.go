// Package events joins summarized change points against the externally
// curated event table by temporal proximity. Consumer-side glue only: the
// join claims nearness, never causation.
package events

import (
	"sort"
	"time"

	"CPDetect/internal/domain/models"
)

// DefaultWindow is the default alignment window around a change point.
const DefaultWindow = 30 * 24 * time.Hour

// Align matches each change point to its nearest event within the window.
// Records with no event inside the window are omitted. Events and records
// may arrive unsorted.
func Align(records []models.ChangePointRecord, events []models.Event, window time.Duration) []models.AlignedEvent {
	if window <= 0 {
		window = DefaultWindow
	}
	if len(records) == 0 || len(events) == 0 {
		return nil
	}

	sorted := make([]models.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var out []models.AlignedEvent
	for _, r := range records {
		i := sort.Search(len(sorted), func(k int) bool { return !sorted[k].Date.Before(r.Date) })
		best := -1
		var bestDist time.Duration
		for _, k := range []int{i - 1, i} {
			if k < 0 || k >= len(sorted) {
				continue
			}
			d := r.Date.Sub(sorted[k].Date)
			if d < 0 {
				d = -d
			}
			if best == -1 || d < bestDist {
				best, bestDist = k, d
			}
		}
		if best >= 0 && bestDist <= window {
			out = append(out, models.AlignedEvent{
				Record:   r,
				Event:    sorted[best],
				DistDays: int(bestDist.Hours() / 24),
			})
		}
	}
	return out
}
