package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetDate(t *testing.T) {
	// 01:30 UTC on the 1st is still the previous evening in Brazil
	now := time.Date(2024, 7, 1, 1, 30, 0, 0, time.UTC)

	assert.Equal(t, day(2024, 6, 30), TargetDate(now, testLoc, 0))
	assert.Equal(t, day(2024, 7, 1), TargetDate(now, testLoc, 1))
	assert.Equal(t, day(2024, 7, 3), TargetDate(now, testLoc, 3))
}

func TestWeekdayPT(t *testing.T) {
	assert.Equal(t, "segunda-feira", WeekdayPT(day(2024, 6, 10)))
	assert.Equal(t, "sábado", WeekdayPT(day(2024, 6, 8)))
	assert.Equal(t, "domingo", WeekdayPT(day(2024, 6, 9)))
}

func TestFormatSlotTime(t *testing.T) {
	cases := map[string]string{
		"19:30:00":  "19:30",
		"09:05":     "09:05",
		" 07:00:00": "07:00",
		"manhã":     "manhã",
		"":          "",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatSlotTime(in), "input %q", in)
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-06-10", testLoc)
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 10), d)
	assert.Equal(t, "10/06", FormatDayMonth(d))

	_, err = ParseDate("10/06/2024", testLoc)
	assert.Error(t, err)
}
