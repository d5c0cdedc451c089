package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/duely/internal/model"
)

func day(d int) time.Time { return time.Date(2026, 5, d, 0, 0, 0, 0, time.UTC) }

func TestUpsertProgress(t *testing.T) {
	tests := map[string]struct {
		entries []model.DailyProgressEntry
		entry   model.DailyProgressEntry
		exp     []model.DailyProgressEntry
	}{
		"Upserting on an empty history should insert.": {
			entry: model.DailyProgressEntry{Date: day(3), PercentCompleted: 50},
			exp:   []model.DailyProgressEntry{{Date: day(3), PercentCompleted: 50}},
		},

		"Upserting an existing date should replace its value.": {
			entries: []model.DailyProgressEntry{
				{Date: day(1), PercentCompleted: 10},
				{Date: day(2), PercentCompleted: 20},
			},
			entry: model.DailyProgressEntry{Date: day(2).Add(15 * time.Hour), PercentCompleted: 80},
			exp: []model.DailyProgressEntry{
				{Date: day(1), PercentCompleted: 10},
				{Date: day(2), PercentCompleted: 80},
			},
		},

		"Upserting a new date should keep date order.": {
			entries: []model.DailyProgressEntry{
				{Date: day(1), PercentCompleted: 10},
				{Date: day(5), PercentCompleted: 50},
			},
			entry: model.DailyProgressEntry{Date: day(3), PercentCompleted: 30},
			exp: []model.DailyProgressEntry{
				{Date: day(1), PercentCompleted: 10},
				{Date: day(3), PercentCompleted: 30},
				{Date: day(5), PercentCompleted: 50},
			},
		},

		"Duplicated dates on the input should collapse into one.": {
			entries: []model.DailyProgressEntry{
				{Date: day(2), PercentCompleted: 20},
				{Date: day(2), PercentCompleted: 25},
			},
			entry: model.DailyProgressEntry{Date: day(2), PercentCompleted: 90},
			exp:   []model.DailyProgressEntry{{Date: day(2), PercentCompleted: 90}},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := model.UpsertProgress(test.entries, test.entry)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestDailyProgressEntryValidate(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(model.DailyProgressEntry{Date: day(1), PercentCompleted: 100}.Validate())
	assert.Error(model.DailyProgressEntry{PercentCompleted: 10}.Validate())
	assert.Error(model.DailyProgressEntry{Date: day(1), PercentCompleted: 101}.Validate())
}
