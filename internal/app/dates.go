package app

import (
	"fmt"
	"strings"
	"time"
)

var weekdaysPT = [...]string{
	time.Sunday:    "domingo",
	time.Monday:    "segunda-feira",
	time.Tuesday:   "terça-feira",
	time.Wednesday: "quarta-feira",
	time.Thursday:  "quinta-feira",
	time.Friday:    "sexta-feira",
	time.Saturday:  "sábado",
}

// DateOnly truncates t to midnight in loc.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// TargetDate is "today + offsetDays" as seen from loc.
func TargetDate(now time.Time, loc *time.Location, offsetDays int) time.Time {
	return DateOnly(now, loc).AddDate(0, 0, offsetDays)
}

func WeekdayPT(t time.Time) string {
	return weekdaysPT[t.Weekday()]
}

// FormatDayMonth renders 2024-06-10 as "10/06".
func FormatDayMonth(t time.Time) string {
	return t.Format("02/01")
}

// FormatSlotTime turns "19:30:00" into "19:30". Unparseable values are returned trimmed.
func FormatSlotTime(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("15:04")
		}
	}
	return raw
}

// ParseDate parses the YYYY-MM-DD form used by the roster tables.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}
