// Package recurrence computes due dates for repeating tasks.
//
// Two base-date conventions coexist on purpose. Completing a task looks for the
// next occurrence strictly after the current due date (a weekly task completed
// today never lands on today again), while catching up stale tasks on load looks
// for the first valid occurrence on or after today.
//
// Every function is total: invalid recurrence configurations fall back to a
// degraded schedule instead of failing.
package recurrence

import (
	"time"

	"github.com/slok/duely/internal/model"
)

// Outcome is the result of completing a repeating task.
type Outcome int

const (
	// OutcomeUpdated means the task due date has been advanced.
	OutcomeUpdated Outcome = iota
	// OutcomeRemoved means the task has no next occurrence and must be deleted.
	OutcomeRemoved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeRemoved:
		return "removed"
	}
	return "unknown"
}

const daysInWeek = 7

// NextWeekdayOnOrAfter returns the first date on or after base that falls on wd.
func NextWeekdayOnOrAfter(base time.Time, wd time.Weekday) time.Time {
	base = model.DateOf(base)
	diff := (int(wd) - int(base.Weekday()) + daysInWeek) % daysInWeek
	return model.AddDays(base, diff)
}

// ComputeNextDueDate returns the due date the task moves to once completed. The
// base is the current due date, or today when the task has none. False means the
// task has no valid next occurrence.
func ComputeNextDueDate(t model.Task, today time.Time) (time.Time, bool) {
	if !t.IsRepeating() || t.RepetitionRule == nil {
		return time.Time{}, false
	}

	base := model.DateOf(today)
	if t.DueDate != nil {
		base = model.DateOf(*t.DueDate)
	}

	switch *t.RepetitionRule {
	case model.RepetitionDaily:
		return model.AddDays(base, 1), true
	case model.RepetitionAlternateDay:
		return model.AddDays(base, 2), true
	case model.RepetitionWeekly:
		if t.RepetitionWeekday == nil {
			return model.AddDays(base, daysInWeek), true
		}
		return NextWeekdayOnOrAfter(model.AddDays(base, 1), *t.RepetitionWeekday), true
	}

	return time.Time{}, false
}

// AdvanceOnCompletion moves the task to its next occurrence.
func AdvanceOnCompletion(t *model.Task, today time.Time) Outcome {
	next, ok := ComputeNextDueDate(*t, today)
	if !ok {
		return OutcomeRemoved
	}

	t.DueDate = &next
	return OutcomeUpdated
}

// ResetIfEligibleForTomorrowDaily pulls a daily task due tomorrow back to today.
func ResetIfEligibleForTomorrowDaily(t *model.Task, today time.Time) bool {
	if !t.HasRule(model.RepetitionDaily) || t.DueDate == nil {
		return false
	}

	today = model.DateOf(today)
	if !model.SameDate(*t.DueDate, model.AddDays(today, 1)) {
		return false
	}

	t.DueDate = &today
	return true
}

// CatchUpOnLoad corrects a repeating task whose due date is in the past, moving it
// to its first occurrence on or after today. Returns true if the due date changed.
func CatchUpOnLoad(t *model.Task, today time.Time) bool {
	if !t.IsRepeating() || t.DueDate == nil {
		return false
	}

	today = model.DateOf(today)
	stale := model.DateOf(*t.DueDate)
	if !stale.Before(today) {
		return false
	}

	corrected := catchUpDate(*t, stale, today)
	if model.SameDate(corrected, *t.DueDate) {
		return false
	}

	t.DueDate = &corrected
	return true
}

func catchUpDate(t model.Task, stale, today time.Time) time.Time {
	var rule model.RepetitionRule
	if t.RepetitionRule != nil {
		rule = *t.RepetitionRule
	}

	switch {
	case rule == model.RepetitionDaily:
		return today
	case rule == model.RepetitionAlternateDay:
		if model.DaysBetween(stale, today)%2 == 0 {
			return today
		}
		return model.AddDays(today, 1)
	case rule == model.RepetitionWeekly && t.RepetitionWeekday != nil:
		return NextWeekdayOnOrAfter(today, *t.RepetitionWeekday)
	}

	// Weekly without weekday or an unknown rule: keep the stale weekday.
	next := stale
	for next.Before(today) {
		next = model.AddDays(next, daysInWeek)
	}
	return next
}
