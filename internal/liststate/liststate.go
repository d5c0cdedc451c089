// Package liststate derives the per-position state of an ordered task list: order,
// position color and the aggregate "not due today" progress.
package liststate

import (
	"time"

	"github.com/slok/duely/internal/model"
)

// Field is a derived task field that can change on recompute.
type Field string

const (
	FieldOrder Field = "order"
	FieldColor Field = "color"
)

// Change notifies that a derived field of a task has a new value.
type Change struct {
	TaskID string
	Field  Field
}

// Progress is the aggregate completion metric of a list.
type Progress struct {
	// Value is the fraction of tasks not due today, in [0, 1].
	Value float64
	Color model.Color
}

// Percent returns the progress value as a percentage.
func (p Progress) Percent() float64 { return p.Value * 100 }

// AssignOrderAndIndex sets every task order to its position in the list. Returns
// the number of tasks whose order was rewritten.
func AssignOrderAndIndex(tasks []model.Task) int {
	changed := 0
	for i := range tasks {
		if tasks[i].Order == i {
			continue
		}
		tasks[i].Order = i
		changed++
	}
	return changed
}

// GradientColor maps factor in [0, 1] to the red, yellow, green gradient. The
// interpolation is done in two segments through yellow.
func GradientColor(factor float64) model.Color {
	factor = clamp01(factor)
	if factor < 0.5 {
		return model.Color{R: 1, G: 2 * factor, B: 0, A: 1}
	}
	return model.Color{R: 1 - 2*(factor-0.5), G: 1, B: 0, A: 1}
}

// PositionColor returns the color of the position i in a list of n elements.
func PositionColor(i, n int) model.Color {
	if n <= 1 {
		return model.ColorRed
	}
	return GradientColor(float64(i) / float64(n-1))
}

// AggregateProgress returns the fraction of tasks that are not due today. An
// empty list is complete.
func AggregateProgress(tasks []model.Task, today time.Time) Progress {
	if len(tasks) == 0 {
		return Progress{Value: 1, Color: GradientColor(1)}
	}

	dueToday := 0
	for _, t := range tasks {
		if t.IsDueOn(today) {
			dueToday++
		}
	}

	n := len(tasks)
	value := clamp01(float64(n-dueToday) / float64(n))
	return Progress{Value: value, Color: GradientColor(value)}
}

// Recompute assigns order and position color to the whole list and returns a
// change per rewritten field. Fields that already hold the computed value are
// left untouched.
func Recompute(tasks []model.Task) []Change {
	var changes []Change
	n := len(tasks)
	for i := range tasks {
		if tasks[i].Order != i {
			tasks[i].Order = i
			changes = append(changes, Change{TaskID: tasks[i].ID, Field: FieldOrder})
		}

		color := PositionColor(i, n)
		if tasks[i].DisplayColor != color {
			tasks[i].DisplayColor = color
			changes = append(changes, Change{TaskID: tasks[i].ID, Field: FieldColor})
		}
	}
	return changes
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
