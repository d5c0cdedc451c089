package printer

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/slok/duely/internal/liststate"
	"github.com/slok/duely/internal/model"
)

// JSONPrinter prints tracker information in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

// taskOutput represents a task with its derived state.
type taskOutput struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	TimeType          string  `json:"time_type"`
	DueDate           *string `json:"due_date"`
	DueToday          bool    `json:"due_today"`
	RepetitionRule    *string `json:"repetition_rule"`
	RepetitionWeekday *string `json:"repetition_weekday"`
	Order             int     `json:"order"`
	Color             string  `json:"color"`
}

// progressOutput represents the current progress and its history.
type progressOutput struct {
	Percent float64          `json:"percent"`
	Color   string           `json:"color"`
	History []progressRecord `json:"history"`
}

type progressRecord struct {
	Date             string  `json:"date"`
	PercentCompleted float64 `json:"percent_completed"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintTasks prints tasks in JSON format.
func (j *JSONPrinter) PrintTasks(tasks []model.Task, today time.Time) error {
	items := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		items[i] = newTaskOutput(t, today)
	}

	return j.encode(items)
}

// PrintTask prints a task in JSON format.
func (j *JSONPrinter) PrintTask(task model.Task, today time.Time) error {
	return j.encode(newTaskOutput(task, today))
}

// PrintProgress prints the progress in JSON format.
func (j *JSONPrinter) PrintProgress(current liststate.Progress, history []model.DailyProgressEntry) error {
	output := progressOutput{
		Percent: current.Percent(),
		Color:   HexColor(current.Color),
		History: make([]progressRecord, len(history)),
	}
	for i, e := range history {
		output.History[i] = progressRecord{
			Date:             e.Date.Format(model.DateLayout),
			PercentCompleted: e.PercentCompleted,
		}
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTaskOutput(t model.Task, today time.Time) taskOutput {
	output := taskOutput{
		ID:       t.ID,
		Title:    t.Title,
		TimeType: string(t.TimeType),
		DueToday: t.IsDueOn(today),
		Order:    t.Order,
		Color:    HexColor(t.DisplayColor),
	}

	if t.DueDate != nil {
		d := t.DueDate.Format(model.DateLayout)
		output.DueDate = &d
	}
	if t.RepetitionRule != nil {
		r := string(*t.RepetitionRule)
		output.RepetitionRule = &r
	}
	if t.RepetitionWeekday != nil {
		wd := strings.ToLower(t.RepetitionWeekday.String())
		output.RepetitionWeekday = &wd
	}

	return output
}
