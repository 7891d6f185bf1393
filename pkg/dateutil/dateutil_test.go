package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestMonthsBetween(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int
	}{
		{"same month", date(2020, 1, 1), date(2020, 1, 31), 0},
		{"adjacent months", date(2020, 1, 1), date(2020, 2, 1), 1},
		{"one year", date(2020, 1, 1), date(2021, 1, 1), 12},
		{"across year boundary", date(2020, 11, 1), date(2021, 2, 1), 3},
		{"reversed", date(2021, 1, 1), date(2020, 1, 1), -12},
		{"day of month ignored", date(2020, 1, 31), date(2020, 2, 1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthsBetween(tt.start, tt.end))
		})
	}
}

func TestYearsBetween(t *testing.T) {
	assert.InDelta(t, 1.0, YearsBetween(date(2020, 1, 1), date(2021, 1, 1)), 1e-12)
	assert.InDelta(t, 0.5, YearsBetween(date(2020, 1, 1), date(2020, 7, 1)), 1e-12)
	assert.InDelta(t, 23.0/12, YearsBetween(date(2020, 1, 1), date(2021, 12, 1)), 1e-12)
}

func TestSameMonth(t *testing.T) {
	assert.True(t, SameMonth(date(2020, 1, 1), date(2020, 1, 31)))
	assert.False(t, SameMonth(date(2020, 1, 1), date(2020, 2, 1)))
	assert.False(t, SameMonth(date(2020, 1, 1), date(2021, 1, 1)))
}
