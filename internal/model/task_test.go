package model_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/duely/internal/model"
)

func ptr[T any](v T) *T { return &v }

func TestTaskValidate(t *testing.T) {
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	base := model.Task{
		ID:       "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Title:    "Water the plants",
		TimeType: model.TimeTypeNone,
	}

	tests := map[string]struct {
		task   func() model.Task
		expErr bool
	}{
		"valid task without date": {
			task: func() model.Task { return base },
		},
		"valid specific date task": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeSpecificDate
				t.DueDate = &due
				return t
			},
		},
		"valid weekly task with weekday": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeRepeating
				t.RepetitionRule = ptr(model.RepetitionWeekly)
				t.RepetitionWeekday = ptr(time.Friday)
				return t
			},
		},
		"weekly task without weekday is allowed": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeRepeating
				t.RepetitionRule = ptr(model.RepetitionWeekly)
				return t
			},
		},
		"missing id": {
			task: func() model.Task {
				t := base
				t.ID = ""
				return t
			},
			expErr: true,
		},
		"blank title": {
			task: func() model.Task {
				t := base
				t.Title = "   "
				return t
			},
			expErr: true,
		},
		"unknown time type": {
			task: func() model.Task {
				t := base
				t.TimeType = "sometimes"
				return t
			},
			expErr: true,
		},
		"specific date without due date": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeSpecificDate
				return t
			},
			expErr: true,
		},
		"repeating without rule": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeRepeating
				return t
			},
			expErr: true,
		},
		"rule on a non repeating task": {
			task: func() model.Task {
				t := base
				t.RepetitionRule = ptr(model.RepetitionDaily)
				return t
			},
			expErr: true,
		},
		"unknown rule": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeRepeating
				t.RepetitionRule = ptr(model.RepetitionRule("monthly"))
				return t
			},
			expErr: true,
		},
		"weekday on a daily task": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeRepeating
				t.RepetitionRule = ptr(model.RepetitionDaily)
				t.RepetitionWeekday = ptr(time.Monday)
				return t
			},
			expErr: true,
		},
		"negative order": {
			task: func() model.Task {
				t := base
				t.Order = -1
				return t
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.task().Validate()
			if test.expErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskValidateStored(t *testing.T) {
	base := model.Task{
		ID:       "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Title:    "Water the plants",
		TimeType: model.TimeTypeRepeating,
	}

	tests := map[string]struct {
		task   func() model.Task
		expErr bool
	}{
		"unknown rule is kept for the scheduling fallback": {
			task: func() model.Task {
				t := base
				t.RepetitionRule = ptr(model.RepetitionRule("monthly"))
				return t
			},
		},
		"repeating task without rule is kept": {
			task: func() model.Task { return base },
		},
		"negative order is reassigned on load": {
			task: func() model.Task {
				t := base
				t.RepetitionRule = ptr(model.RepetitionDaily)
				t.Order = -1
				return t
			},
		},
		"missing id": {
			task: func() model.Task {
				t := base
				t.ID = ""
				return t
			},
			expErr: true,
		},
		"empty title": {
			task: func() model.Task {
				t := base
				t.Title = " "
				return t
			},
			expErr: true,
		},
		"unknown time type": {
			task: func() model.Task {
				t := base
				t.TimeType = "someday"
				return t
			},
			expErr: true,
		},
		"specific date task without date": {
			task: func() model.Task {
				t := base
				t.TimeType = model.TimeTypeSpecificDate
				return t
			},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.task().ValidateStored()
			if test.expErr {
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskDropStrayRepetition(t *testing.T) {
	tests := map[string]struct {
		task    model.Task
		expTask model.Task
	}{
		"non repeating task should lose rule and weekday": {
			task: model.Task{
				TimeType:          model.TimeTypeSpecificDate,
				RepetitionRule:    ptr(model.RepetitionWeekly),
				RepetitionWeekday: ptr(time.Monday),
			},
			expTask: model.Task{TimeType: model.TimeTypeSpecificDate},
		},
		"out of range weekday should be cleared": {
			task: model.Task{
				TimeType:          model.TimeTypeRepeating,
				RepetitionRule:    ptr(model.RepetitionWeekly),
				RepetitionWeekday: ptr(time.Weekday(9)),
			},
			expTask: model.Task{
				TimeType:       model.TimeTypeRepeating,
				RepetitionRule: ptr(model.RepetitionWeekly),
			},
		},
		"unknown rule should be kept": {
			task: model.Task{
				TimeType:       model.TimeTypeRepeating,
				RepetitionRule: ptr(model.RepetitionRule("monthly")),
			},
			expTask: model.Task{
				TimeType:       model.TimeTypeRepeating,
				RepetitionRule: ptr(model.RepetitionRule("monthly")),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			task := test.task
			task.DropStrayRepetition()
			assert.Equal(t, test.expTask, task)
		})
	}
}

func TestTaskClone(t *testing.T) {
	require := require.New(t)

	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	orig := model.Task{
		ID:                "id",
		Title:             "t",
		TimeType:          model.TimeTypeRepeating,
		DueDate:           &due,
		RepetitionRule:    ptr(model.RepetitionWeekly),
		RepetitionWeekday: ptr(time.Monday),
	}

	c := orig.Clone()
	require.Equal(orig, c)

	*c.DueDate = due.AddDate(0, 0, 1)
	*c.RepetitionRule = model.RepetitionDaily
	*c.RepetitionWeekday = time.Tuesday

	assert.Equal(t, due, *orig.DueDate)
	assert.Equal(t, model.RepetitionWeekly, *orig.RepetitionRule)
	assert.Equal(t, time.Monday, *orig.RepetitionWeekday)
}

func TestParseWeekday(t *testing.T) {
	tests := map[string]struct {
		in     string
		exp    time.Weekday
		expErr bool
	}{
		"full name":       {in: "Wednesday", exp: time.Wednesday},
		"short name":      {in: "sat", exp: time.Saturday},
		"padded and caps": {in: "  SUNDAY ", exp: time.Sunday},
		"invalid":         {in: "someday", expErr: true},
		"empty":           {in: "", expErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := model.ParseWeekday(test.in)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, test.exp, got)
		})
	}
}
