package lib

import (
	"errors"
	"time"

	"github.com/slok/duely/internal/app/tracker"
	"github.com/slok/duely/internal/liststate"
	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/printer"
	"github.com/slok/duely/internal/recurrence"
)

var (
	// ErrNotFound is returned when a task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a task with the same ID already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
)

// StorageType identifies the storage backend.
type StorageType string

const (
	// StorageJSON stores tasks and progress as JSON files.
	StorageJSON StorageType = "json"
	// StorageSQLite stores tasks and progress on a SQLite database.
	StorageSQLite StorageType = "sqlite"
	// StorageMemory keeps everything in memory, nothing survives the client.
	StorageMemory StorageType = "memory"
)

// SortOrder selects how [Client.ListTasks] presents the tasks.
type SortOrder string

const (
	// SortOrderManual lists the tasks in their stored order.
	SortOrderManual SortOrder = "manual"
	// SortOrderDueDate lists the tasks by due date, tasks without one go last.
	SortOrderDueDate SortOrder = "due_date"
)

// Settings are the tracker settings.
type Settings struct {
	// Location is the time zone the calendar dates are computed in.
	Location *time.Location
	// SortOrder only affects how tasks are listed, never their stored order.
	SortOrder SortOrder
	// TaskSaveDelay is how long task changes are coalesced before being written.
	TaskSaveDelay time.Duration
	// ProgressSaveDelay is how long progress changes are coalesced before being
	// written. Must be longer than TaskSaveDelay.
	ProgressSaveDelay time.Duration
}

// TimeType is the scheduling mode of a task.
type TimeType string

const (
	// TimeTypeNone tasks have no due date.
	TimeTypeNone TimeType = "none"
	// TimeTypeSpecificDate tasks are due on a single date.
	TimeTypeSpecificDate TimeType = "specific_date"
	// TimeTypeRepeating tasks are due periodically.
	TimeTypeRepeating TimeType = "repeating"
)

// RepetitionRule is the period of a repeating task.
type RepetitionRule string

const (
	// RepetitionDaily repeats every day.
	RepetitionDaily RepetitionRule = "daily"
	// RepetitionAlternateDay repeats every two days.
	RepetitionAlternateDay RepetitionRule = "alternate_day"
	// RepetitionWeekly repeats every week, on a weekday when set.
	RepetitionWeekly RepetitionRule = "weekly"
)

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float64
}

// Hex returns the web hex representation of the color, e.g. "#ff0000".
func (c Color) Hex() string {
	return printer.HexColor(model.Color{R: c.R, G: c.G, B: c.B, A: 1})
}

// Task represents a task returned by the SDK.
//
// This is a read-only snapshot of the task at the time of the API call.
type Task struct {
	// ID is the unique identifier (ULID) assigned at creation.
	ID    string
	Title string
	// TimeType is the scheduling mode, RepetitionRule is only set on repeating
	// tasks.
	TimeType TimeType
	// DueDate is the calendar date (midnight on the settings location) the task
	// is due on. Nil on tasks without a date.
	DueDate        *time.Time
	RepetitionRule RepetitionRule
	// RepetitionWeekday is the weekday of a weekly task. Nil means every seven
	// days from the due date.
	RepetitionWeekday *time.Weekday
	// Order is the position on the stored list, 0 being the top.
	Order int
	// Color is the position color, from red on the top to green on the bottom.
	Color Color
}

// AddTaskOpts configures a new task.
//
// The time type is derived from the fields: repeating when RepetitionRule is
// set, a specific date when only DueDate is set, no date otherwise. A repeating
// task without a due date starts on its first occurrence from today.
type AddTaskOpts struct {
	// Title is the task title (required).
	Title             string
	DueDate           *time.Time
	RepetitionRule    RepetitionRule
	RepetitionWeekday *time.Weekday
}

// UpdateTaskOpts configures a task update. Nil fields are left unchanged.
type UpdateTaskOpts struct {
	Title *string
	// ClearSchedule removes the due date and the repetition, applied before the
	// other schedule fields.
	ClearSchedule     bool
	DueDate           *time.Time
	RepetitionRule    *RepetitionRule
	RepetitionWeekday *time.Weekday
}

// CompletionOutcome is the result of completing a task.
type CompletionOutcome string

const (
	// CompletionRescheduled means the repeating task moved to its next occurrence.
	CompletionRescheduled CompletionOutcome = "rescheduled"
	// CompletionRemoved means the task has been removed from the list.
	CompletionRemoved CompletionOutcome = "removed"
)

// Progress is the share of tasks that are not due today.
type Progress struct {
	// Percent is in [0, 100], an empty list is 100.
	Percent float64
	Color   Color
}

// ProgressEntry is the recorded progress of a day.
type ProgressEntry struct {
	Date    time.Time
	Percent float64
}

// ChangeKind is the kind of change applied to the task list.
type ChangeKind string

const (
	ChangeAdd    ChangeKind = "add"
	ChangeUpdate ChangeKind = "update"
	ChangeRemove ChangeKind = "remove"
	ChangeDone   ChangeKind = "done"
	ChangeReset  ChangeKind = "reset"
	ChangeMove   ChangeKind = "move"
	ChangeImport ChangeKind = "import"
)

// Change describes a successful change of the task list.
type Change struct {
	Kind ChangeKind
	// TaskID is the changed task, empty on imports.
	TaskID string
	// ReorderedTaskIDs are the tasks whose position or color changed as a
	// result, each ID once.
	ReorderedTaskIDs []string
	Progress         Progress
}

func toInternalSettings(s Settings) model.Settings {
	return model.Settings{
		Location:          s.Location,
		SortOrder:         model.SortOrder(s.SortOrder),
		TaskSaveDelay:     s.TaskSaveDelay,
		ProgressSaveDelay: s.ProgressSaveDelay,
	}
}

func fromInternalColor(c model.Color) Color {
	return Color{R: c.R, G: c.G, B: c.B}
}

func fromInternalTask(t model.Task) Task {
	task := Task{
		ID:       t.ID,
		Title:    t.Title,
		TimeType: TimeType(t.TimeType),
		Order:    t.Order,
		Color:    fromInternalColor(t.DisplayColor),
	}
	if t.DueDate != nil {
		d := *t.DueDate
		task.DueDate = &d
	}
	if t.RepetitionRule != nil {
		task.RepetitionRule = RepetitionRule(*t.RepetitionRule)
	}
	if t.RepetitionWeekday != nil {
		wd := *t.RepetitionWeekday
		task.RepetitionWeekday = &wd
	}
	return task
}

func fromInternalTaskList(ts []model.Task) []Task {
	tasks := make([]Task, 0, len(ts))
	for _, t := range ts {
		tasks = append(tasks, fromInternalTask(t))
	}
	return tasks
}

func toInternalAddRequest(opts AddTaskOpts) tracker.AddRequest {
	req := tracker.AddRequest{
		Title:             opts.Title,
		TimeType:          model.TimeTypeNone,
		DueDate:           opts.DueDate,
		RepetitionWeekday: opts.RepetitionWeekday,
	}

	switch {
	case opts.RepetitionRule != "":
		r := model.RepetitionRule(opts.RepetitionRule)
		req.TimeType = model.TimeTypeRepeating
		req.RepetitionRule = &r
	case opts.DueDate != nil:
		req.TimeType = model.TimeTypeSpecificDate
	}

	return req
}

// applyUpdate applies the update on a copy of the internal task.
func applyUpdate(t model.Task, opts UpdateTaskOpts) model.Task {
	if opts.Title != nil {
		t.Title = *opts.Title
	}

	if opts.ClearSchedule {
		t.TimeType = model.TimeTypeNone
		t.DueDate = nil
		t.RepetitionRule = nil
		t.RepetitionWeekday = nil
	}

	if opts.DueDate != nil {
		d := *opts.DueDate
		t.DueDate = &d
		if !t.IsRepeating() && opts.RepetitionRule == nil {
			t.TimeType = model.TimeTypeSpecificDate
		}
	}

	if opts.RepetitionRule != nil {
		r := model.RepetitionRule(*opts.RepetitionRule)
		if !t.HasRule(r) && opts.DueDate == nil {
			// A new rule starts from its first occurrence.
			t.DueDate = nil
		}
		t.TimeType = model.TimeTypeRepeating
		t.RepetitionRule = &r
		if r != model.RepetitionWeekly {
			t.RepetitionWeekday = nil
		}
	}

	if opts.RepetitionWeekday != nil {
		wd := *opts.RepetitionWeekday
		t.RepetitionWeekday = &wd
		if opts.DueDate == nil {
			t.DueDate = nil
		}
	}

	return t
}

func fromInternalOutcome(o recurrence.Outcome) CompletionOutcome {
	if o == recurrence.OutcomeUpdated {
		return CompletionRescheduled
	}
	return CompletionRemoved
}

func fromInternalProgress(p liststate.Progress) Progress {
	return Progress{Percent: p.Percent(), Color: fromInternalColor(p.Color)}
}

func fromInternalProgressEntries(es []model.DailyProgressEntry) []ProgressEntry {
	entries := make([]ProgressEntry, 0, len(es))
	for _, e := range es {
		entries = append(entries, ProgressEntry{Date: e.Date, Percent: e.PercentCompleted})
	}
	return entries
}

var changeKinds = map[tracker.Mutation]ChangeKind{
	tracker.MutationAdd:    ChangeAdd,
	tracker.MutationUpdate: ChangeUpdate,
	tracker.MutationDelete: ChangeRemove,
	tracker.MutationDone:   ChangeDone,
	tracker.MutationReset:  ChangeReset,
	tracker.MutationMove:   ChangeMove,
	tracker.MutationImport: ChangeImport,
}

func fromInternalEvent(ev tracker.Event) Change {
	c := Change{
		Kind:     changeKinds[ev.Mutation],
		TaskID:   ev.TaskID,
		Progress: fromInternalProgress(ev.Progress),
	}

	seen := map[string]bool{}
	for _, ch := range ev.Changes {
		if seen[ch.TaskID] {
			continue
		}
		seen[ch.TaskID] = true
		c.ReorderedTaskIDs = append(c.ReorderedTaskIDs, ch.TaskID)
	}

	return c
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrAlreadyExists):
		return joinErrors(err, ErrAlreadyExists)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
