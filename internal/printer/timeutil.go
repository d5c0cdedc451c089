package printer

import (
	"fmt"
	"time"

	"github.com/slok/duely/internal/model"
)

// DueIn returns a human-readable due date relative to today.
// Examples: "today", "tomorrow", "in 3 days", "yesterday", "5 days ago".
func DueIn(due, today time.Time) string {
	days := model.DaysBetween(today, due)

	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days == -1:
		return "yesterday"
	case days > 1:
		return fmt.Sprintf("in %d days", days)
	}
	return fmt.Sprintf("%d days ago", -days)
}

// FormatDate returns a calendar date with its weekday.
// Format: "2006-01-02 (Mon)".
func FormatDate(t time.Time) string {
	return t.Format(model.DateLayout + " (Mon)")
}

// FormatSchedule returns the schedule of a task in a short form.
// Examples: "-", "on date", "daily", "alternate day", "weekly on monday".
func FormatSchedule(t model.Task) string {
	switch t.TimeType {
	case model.TimeTypeSpecificDate:
		return "on date"
	case model.TimeTypeRepeating:
		if t.RepetitionRule == nil {
			return "repeating"
		}
		switch *t.RepetitionRule {
		case model.RepetitionDaily:
			return "daily"
		case model.RepetitionAlternateDay:
			return "alternate day"
		case model.RepetitionWeekly:
			if t.RepetitionWeekday == nil {
				return "weekly"
			}
			return fmt.Sprintf("weekly on %s", *t.RepetitionWeekday)
		}
		return string(*t.RepetitionRule)
	}
	return "-"
}
