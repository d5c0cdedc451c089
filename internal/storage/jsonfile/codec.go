package jsonfile

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/slok/duely/internal/model"
)

// taskRecord is the flat persisted representation of a task. Optional fields are
// pointers so missing or null values load as absent.
type taskRecord struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	TimeType          string  `json:"time_type"`
	DueDate           *string `json:"due_date"`
	RepetitionRule    *string `json:"repetition_rule"`
	RepetitionWeekday *string `json:"repetition_weekday"`
	Order             int     `json:"order"`
}

type progressRecord struct {
	Date             string  `json:"date"`
	PercentCompleted float64 `json:"percent_completed"`
}

// EncodeTasks writes tasks as a JSON array of flat records.
func EncodeTasks(w io.Writer, tasks []model.Task) error {
	records := make([]taskRecord, 0, len(tasks))
	for _, t := range tasks {
		records = append(records, taskToRecord(t))
	}
	return encode(w, records)
}

// DecodeTasks reads a JSON array of task records. Malformed records are skipped
// and returned as warnings, unusable recurrences are kept. The result is sorted by
// the persisted order.
func DecodeTasks(r io.Reader, loc *time.Location) (tasks []model.Task, warnings []error, err error) {
	var records []taskRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, nil, fmt.Errorf("could not decode tasks: %w", err)
	}

	tasks = make([]model.Task, 0, len(records))
	for i, rec := range records {
		t, err := recordToTask(rec, loc)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("task record %d: %w", i, err))
			continue
		}
		tasks = append(tasks, t)
	}

	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
	return tasks, warnings, nil
}

// EncodeProgress writes progress entries as a JSON array.
func EncodeProgress(w io.Writer, entries []model.DailyProgressEntry) error {
	records := make([]progressRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, progressRecord{
			Date:             e.Date.Format(model.DateLayout),
			PercentCompleted: e.PercentCompleted,
		})
	}
	return encode(w, records)
}

// DecodeProgress reads a JSON array of progress records. Entries sharing a date
// are collapsed, the last one wins.
func DecodeProgress(r io.Reader, loc *time.Location) (entries []model.DailyProgressEntry, warnings []error, err error) {
	var records []progressRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, nil, fmt.Errorf("could not decode progress: %w", err)
	}

	for i, rec := range records {
		date, err := model.ParseDate(rec.Date, loc)
		if err != nil {
			warnings = append(warnings, fmt.Errorf("progress record %d: %w", i, err))
			continue
		}
		e := model.DailyProgressEntry{Date: date, PercentCompleted: rec.PercentCompleted}
		if err := e.Validate(); err != nil {
			warnings = append(warnings, fmt.Errorf("progress record %d: %w", i, err))
			continue
		}
		entries = model.UpsertProgress(entries, e)
	}

	if entries == nil {
		entries = []model.DailyProgressEntry{}
	}
	return entries, warnings, nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func taskToRecord(t model.Task) taskRecord {
	rec := taskRecord{
		ID:       t.ID,
		Title:    t.Title,
		TimeType: string(t.TimeType),
		Order:    t.Order,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(model.DateLayout)
		rec.DueDate = &d
	}
	if t.RepetitionRule != nil {
		r := string(*t.RepetitionRule)
		rec.RepetitionRule = &r
	}
	if t.RepetitionWeekday != nil {
		wd := strings.ToLower(t.RepetitionWeekday.String())
		rec.RepetitionWeekday = &wd
	}
	return rec
}

func recordToTask(rec taskRecord, loc *time.Location) (model.Task, error) {
	t := model.Task{
		ID:       rec.ID,
		Title:    rec.Title,
		TimeType: model.TimeType(rec.TimeType),
		Order:    rec.Order,
	}

	if rec.DueDate != nil && *rec.DueDate != "" {
		d, err := model.ParseDate(*rec.DueDate, loc)
		if err != nil {
			return model.Task{}, fmt.Errorf("invalid due date %q: %w", *rec.DueDate, model.ErrNotValid)
		}
		t.DueDate = &d
	}

	if rec.RepetitionRule != nil && *rec.RepetitionRule != "" {
		r := model.RepetitionRule(*rec.RepetitionRule)
		t.RepetitionRule = &r
	}

	// An unreadable weekday is dropped, weekly tasks fall back to every seven days.
	if rec.RepetitionWeekday != nil && *rec.RepetitionWeekday != "" {
		if wd, err := model.ParseWeekday(*rec.RepetitionWeekday); err == nil {
			t.RepetitionWeekday = &wd
		}
	}

	// Older files may lack the time type, infer it from the other fields.
	if t.TimeType == "" {
		switch {
		case t.RepetitionRule != nil:
			t.TimeType = model.TimeTypeRepeating
		case t.DueDate != nil:
			t.TimeType = model.TimeTypeSpecificDate
		default:
			t.TimeType = model.TimeTypeNone
		}
	}

	t.DropStrayRepetition()
	if err := t.ValidateStored(); err != nil {
		return model.Task{}, err
	}

	return t, nil
}
