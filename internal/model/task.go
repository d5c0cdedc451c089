package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeType represents how a task relates to the calendar.
type TimeType string

const (
	TimeTypeNone         TimeType = "none"
	TimeTypeSpecificDate TimeType = "specific_date"
	TimeTypeRepeating    TimeType = "repeating"
)

// RepetitionRule is the cadence a repeating task is rescheduled with.
type RepetitionRule string

const (
	RepetitionDaily        RepetitionRule = "daily"
	RepetitionAlternateDay RepetitionRule = "alternate_day"
	RepetitionWeekly       RepetitionRule = "weekly"
)

// Valid returns true if the rule is one of the known cadences.
func (r RepetitionRule) Valid() bool {
	switch r {
	case RepetitionDaily, RepetitionAlternateDay, RepetitionWeekly:
		return true
	}
	return false
}

// Task is a single entry of the ordered task list.
type Task struct {
	ID       string
	Title    string
	TimeType TimeType
	// DueDate is a calendar date, always at midnight.
	DueDate           *time.Time
	RepetitionRule    *RepetitionRule
	RepetitionWeekday *time.Weekday
	// Order is the position of the task in the authoritative list.
	Order int
	// DisplayColor is derived from Order, never persisted.
	DisplayColor Color
}

// IsRepeating returns true if the task reschedules itself on completion.
func (t Task) IsRepeating() bool {
	return t.TimeType == TimeTypeRepeating
}

// HasRule returns true if the task is repeating with the given rule.
func (t Task) HasRule(r RepetitionRule) bool {
	return t.IsRepeating() && t.RepetitionRule != nil && *t.RepetitionRule == r
}

// IsDueOn returns true if the task due date is the same calendar date as day.
func (t Task) IsDueOn(day time.Time) bool {
	return t.DueDate != nil && SameDate(*t.DueDate, day)
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	if t.RepetitionRule != nil {
		r := *t.RepetitionRule
		c.RepetitionRule = &r
	}
	if t.RepetitionWeekday != nil {
		w := *t.RepetitionWeekday
		c.RepetitionWeekday = &w
	}
	return c
}

// Validate validates the task model.
func (t Task) Validate() error {
	if err := t.ValidateStored(); err != nil {
		return err
	}

	if t.IsRepeating() != (t.RepetitionRule != nil) {
		return fmt.Errorf("repetition rule must be set only for repeating tasks: %w", ErrNotValid)
	}

	if t.RepetitionRule != nil && !t.RepetitionRule.Valid() {
		return fmt.Errorf("unknown repetition rule %q: %w", *t.RepetitionRule, ErrNotValid)
	}

	if t.RepetitionWeekday != nil {
		if !t.HasRule(RepetitionWeekly) {
			return fmt.Errorf("repetition weekday is only allowed on weekly tasks: %w", ErrNotValid)
		}
		if !validWeekday(*t.RepetitionWeekday) {
			return fmt.Errorf("invalid repetition weekday %d: %w", *t.RepetitionWeekday, ErrNotValid)
		}
	}

	if t.Order < 0 {
		return fmt.Errorf("order cannot be negative: %w", ErrNotValid)
	}

	return nil
}

// ValidateStored validates the fields a stored task can't be used without. The
// repetition is not checked: unknown rules and missing weekdays fall back when
// scheduling, and the order is reassigned on load.
func (t Task) ValidateStored() error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", ErrNotValid)
	}

	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title is required: %w", ErrNotValid)
	}

	switch t.TimeType {
	case TimeTypeNone, TimeTypeSpecificDate, TimeTypeRepeating:
	default:
		return fmt.Errorf("unknown time type %q: %w", t.TimeType, ErrNotValid)
	}

	if t.TimeType == TimeTypeSpecificDate && t.DueDate == nil {
		return fmt.Errorf("specific date tasks require a due date: %w", ErrNotValid)
	}

	return nil
}

// DropStrayRepetition clears the repetition fields a stored task can't use:
// rule and weekday of non repeating tasks and out of range weekdays. Unknown
// rules are kept.
func (t *Task) DropStrayRepetition() {
	if !t.IsRepeating() {
		t.RepetitionRule = nil
		t.RepetitionWeekday = nil
		return
	}

	if t.RepetitionWeekday != nil && !validWeekday(*t.RepetitionWeekday) {
		t.RepetitionWeekday = nil
	}
}

func validWeekday(wd time.Weekday) bool {
	return wd >= time.Sunday && wd <= time.Saturday
}

// ParseWeekday parses an english weekday name (full or three letter) case insensitive.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for wd := time.Sunday; wd <= time.Saturday; wd++ {
		name := strings.ToLower(wd.String())
		if s == name || s == name[:3] {
			return wd, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q: %w", s, ErrNotValid)
}
