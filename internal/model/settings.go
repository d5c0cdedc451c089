package model

import (
	"fmt"
	"time"
)

// SortOrder selects how the task list is presented.
type SortOrder string

const (
	// SortOrderManual presents tasks in their persisted order.
	SortOrderManual SortOrder = "manual"
	// SortOrderDueDate presents tasks by due date, undated tasks last.
	SortOrderDueDate SortOrder = "due_date"
)

// Settings are the user settings threaded into the tracker.
type Settings struct {
	// Location is the calendar the dates are computed in.
	Location          *time.Location
	SortOrder         SortOrder
	TaskSaveDelay     time.Duration
	ProgressSaveDelay time.Duration
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Location:          time.Local,
		SortOrder:         SortOrderManual,
		TaskSaveDelay:     500 * time.Millisecond,
		ProgressSaveDelay: 2 * time.Second,
	}
}

// WithDefaults returns the settings with every unset field taken from
// DefaultSettings.
func (s Settings) WithDefaults() Settings {
	def := DefaultSettings()
	if s.Location == nil {
		s.Location = def.Location
	}
	if s.SortOrder == "" {
		s.SortOrder = def.SortOrder
	}
	if s.TaskSaveDelay == 0 {
		s.TaskSaveDelay = def.TaskSaveDelay
	}
	if s.ProgressSaveDelay == 0 {
		s.ProgressSaveDelay = def.ProgressSaveDelay
	}
	return s
}

// Validate validates the settings.
func (s Settings) Validate() error {
	if s.Location == nil {
		return fmt.Errorf("location is required: %w", ErrNotValid)
	}

	switch s.SortOrder {
	case SortOrderManual, SortOrderDueDate:
	default:
		return fmt.Errorf("unknown sort order %q: %w", s.SortOrder, ErrNotValid)
	}

	if s.TaskSaveDelay <= 0 || s.ProgressSaveDelay <= 0 {
		return fmt.Errorf("save delays must be positive: %w", ErrNotValid)
	}

	if s.TaskSaveDelay >= s.ProgressSaveDelay {
		return fmt.Errorf("task save delay (%s) must be shorter than progress save delay (%s): %w", s.TaskSaveDelay, s.ProgressSaveDelay, ErrNotValid)
	}

	return nil
}
