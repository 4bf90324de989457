package billing

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// PreviousMonth returns the calendar month before now, evaluated in loc.
func PreviousMonth(now time.Time, loc *time.Location) (int, time.Month) {
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	prev := first.AddDate(0, -1, 0)
	return prev.Year(), prev.Month()
}

// MonthRange returns [start, end) of the month in loc.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// PeriodKey identifies a monthly billing period, e.g. 2026-09.
func PeriodKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, int(month))
}

// ParsePeriodKey is the inverse of PeriodKey.
func ParsePeriodKey(key string) (int, time.Month, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid period %q: %w", key, err)
	}
	return t.Year(), t.Month(), nil
}

// DueDate is day dueDay of the month after from, clamped to that month's length.
func DueDate(from time.Time, dueDay int, loc *time.Location) time.Time {
	local := from.In(loc)
	next := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	lastDay := next.AddDate(0, 1, -1).Day()
	if dueDay < 1 {
		dueDay = 1
	}
	if dueDay > lastDay {
		dueDay = lastDay
	}
	return time.Date(next.Year(), next.Month(), dueDay, 23, 59, 59, 0, loc)
}
