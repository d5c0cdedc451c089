package model

import (
	"fmt"
	"sort"
	"time"
)

// DailyProgressEntry is the aggregate completion metric recorded for a calendar date.
type DailyProgressEntry struct {
	Date             time.Time
	PercentCompleted float64
}

// Validate validates the progress entry.
func (e DailyProgressEntry) Validate() error {
	if e.Date.IsZero() {
		return fmt.Errorf("progress date is required: %w", ErrNotValid)
	}
	if e.PercentCompleted < 0 || e.PercentCompleted > 100 {
		return fmt.Errorf("percent completed out of range: %v: %w", e.PercentCompleted, ErrNotValid)
	}
	return nil
}

// UpsertProgress replaces the entry for the same calendar date as e or appends it,
// returning the entries sorted by date. The received slice is not modified.
func UpsertProgress(entries []DailyProgressEntry, e DailyProgressEntry) []DailyProgressEntry {
	e.Date = DateOf(e.Date)

	out := make([]DailyProgressEntry, 0, len(entries)+1)
	replaced := false
	for _, existing := range entries {
		if SameDate(existing.Date, e.Date) {
			if !replaced {
				out = append(out, e)
				replaced = true
			}
			continue
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
