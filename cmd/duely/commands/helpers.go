package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/duely/internal/model"
)

// withTracker runs f with a loaded tracker and closes it afterwards, persisting
// any pending change.
func withTracker(ctx context.Context, root *RootCommand, f func(t *Tracker) error) (err error) {
	t, err := root.NewTracker(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := t.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return f(t)
}

// resolveTask finds a task by its listed position, its ID or an unambiguous ID prefix.
func resolveTask(tasks []model.Task, ref string) (model.Task, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Task{}, fmt.Errorf("task reference is required: %w", model.ErrNotValid)
	}

	if pos, err := strconv.Atoi(ref); err == nil {
		if pos < 0 || pos >= len(tasks) {
			return model.Task{}, fmt.Errorf("no task at position %d: %w", pos, model.ErrNotFound)
		}
		return tasks[pos], nil
	}

	var matches []model.Task
	for _, t := range tasks {
		if strings.EqualFold(t.ID, ref) {
			return t, nil
		}
		if strings.HasPrefix(strings.ToUpper(t.ID), strings.ToUpper(ref)) {
			matches = append(matches, t)
		}
	}

	switch len(matches) {
	case 0:
		return model.Task{}, fmt.Errorf("task %s: %w", ref, model.ErrNotFound)
	case 1:
		return matches[0], nil
	}
	return model.Task{}, fmt.Errorf("task reference %q matches %d tasks: %w", ref, len(matches), model.ErrNotValid)
}

// parseDate parses a due date, accepts "today", "tomorrow" and calendar dates.
func parseDate(s string, today time.Time) (time.Time, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return today, nil
	case "tomorrow":
		return model.AddDays(today, 1), nil
	}

	d, err := model.ParseDate(strings.TrimSpace(s), today.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected %s: %w", s, model.DateLayout, model.ErrNotValid)
	}
	return d, nil
}

// scheduleFlags are the schedule flags shared by the commands that set a task
// schedule.
type scheduleFlags struct {
	due   string
	every string
	on    string
}

func (s *scheduleFlags) register(cmd *kingpin.CmdClause) {
	cmd.Flag("due", "Due date (YYYY-MM-DD, today or tomorrow).").StringVar(&s.due)
	cmd.Flag("every", "Repeat the task.").EnumVar(&s.every,
		string(model.RepetitionDaily),
		string(model.RepetitionAlternateDay),
		string(model.RepetitionWeekly),
	)
	cmd.Flag("on", "Weekday of a weekly task.").StringVar(&s.on)
}

func (s scheduleFlags) set() bool {
	return s.due != "" || s.every != "" || s.on != ""
}

// apply sets the schedule on the task. The time type is derived from the flags:
// repeating when a rule is set, specific date when only a due date is set.
func (s scheduleFlags) apply(t *model.Task, today time.Time) error {
	if s.on != "" && s.every == "" && !t.HasRule(model.RepetitionWeekly) {
		return fmt.Errorf("a weekday requires a weekly task: %w", model.ErrNotValid)
	}

	if s.due != "" {
		d, err := parseDate(s.due, today)
		if err != nil {
			return err
		}
		t.DueDate = &d
		if s.every == "" && !t.IsRepeating() {
			t.TimeType = model.TimeTypeSpecificDate
		}
	}

	if s.every != "" {
		r := model.RepetitionRule(s.every)
		if !t.HasRule(r) && s.due == "" {
			// A new rule starts from its first occurrence.
			t.DueDate = nil
		}
		t.TimeType = model.TimeTypeRepeating
		t.RepetitionRule = &r
		if r != model.RepetitionWeekly {
			t.RepetitionWeekday = nil
		}
	}

	if s.on != "" {
		wd, err := model.ParseWeekday(s.on)
		if err != nil {
			return err
		}
		t.RepetitionWeekday = &wd
		if s.due == "" {
			t.DueDate = nil
		}
	}

	return nil
}
