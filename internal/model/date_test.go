package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/duely/internal/model"
)

func TestDaysBetween(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skipf("timezone data not available: %s", err)
	}

	tests := map[string]struct {
		a, b time.Time
		exp  int
	}{
		"same day with different hours": {
			a:   time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC),
			b:   time.Date(2026, 1, 1, 23, 0, 0, 0, time.UTC),
			exp: 0,
		},
		"forward": {
			a:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			b:   time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
			exp: 5,
		},
		"backward": {
			a:   time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
			b:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			exp: -5,
		},
		"across a DST change": {
			a:   time.Date(2026, 3, 28, 0, 0, 0, 0, madrid),
			b:   time.Date(2026, 3, 30, 0, 0, 0, 0, madrid),
			exp: 2,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, model.DaysBetween(test.a, test.b))
		})
	}
}

func TestDateOfAndAddDays(t *testing.T) {
	assert := assert.New(t)

	ts := time.Date(2026, 2, 28, 17, 45, 12, 99, time.UTC)
	assert.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), model.DateOf(ts))
	assert.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), model.AddDays(ts, 1))
	assert.Equal(time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC), model.AddDays(ts, -7))
	assert.True(model.SameDate(ts, model.DateOf(ts)))
}

func TestParseDate(t *testing.T) {
	assert := assert.New(t)

	d, err := model.ParseDate("2026-10-16", time.UTC)
	assert.NoError(err)
	assert.Equal(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), d)

	_, err = model.ParseDate("16/10/2026", time.UTC)
	assert.Error(err)
}
