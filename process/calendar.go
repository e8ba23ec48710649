package process

import (
	"fmt"
	"time"

	"github.com/integrityline/legal-process-api/models"
)

const dayKeyFormat = "2006-01-02"

// HolidaySet is the set of declared holidays used for business-day
// arithmetic, keyed by YYYY-MM-DD. The production set comes from the
// holiday collection; the engine never embeds a holiday table.
type HolidaySet map[string]struct{}

// NewHolidaySet builds a holiday set from explicit dates
func NewHolidaySet(dates ...time.Time) HolidaySet {
	h := make(HolidaySet, len(dates))
	for _, d := range dates {
		h[d.Format(dayKeyFormat)] = struct{}{}
	}
	return h
}

// HolidaySetFrom builds a holiday set from stored holiday records
func HolidaySetFrom(holidays []models.Holiday) HolidaySet {
	h := make(HolidaySet, len(holidays))
	for _, record := range holidays {
		h[record.Date.Format(dayKeyFormat)] = struct{}{}
	}
	return h
}

// Contains reports whether the given date is a declared holiday
func (h HolidaySet) Contains(t time.Time) bool {
	_, ok := h[t.Format(dayKeyFormat)]
	return ok
}

// IsBusinessDay reports whether t is a weekday that is not a declared holiday
func IsBusinessDay(t time.Time, holidays HolidaySet) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !holidays.Contains(t)
}

// dateOnly drops the time-of-day component so day walks are not affected
// by timestamps or DST offsets.
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays advances start by n qualifying days under the given unit.
// Calendar days are plain addition; business days skip Saturdays, Sundays
// and declared holidays. n must be >= 0; n == 0 returns start unchanged.
func AddDays(start time.Time, n int, unit models.DayUnit, holidays HolidaySet) (time.Time, error) {
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("add days: %w", ErrInvalidDate)
	}
	if n < 0 {
		return time.Time{}, fmt.Errorf("add days: n must be >= 0, got %d: %w", n, ErrInvalidArgument)
	}
	if n == 0 {
		return start, nil
	}
	if unit == models.CalendarDays {
		return start.AddDate(0, 0, n), nil
	}

	d := dateOnly(start)
	counted := 0
	for counted < n {
		d = d.AddDate(0, 0, 1)
		if IsBusinessDay(d, holidays) {
			counted++
		}
	}
	return d, nil
}

// CountDaysBetween returns the signed number of qualifying days walked from
// `from` to `to` (exclusive of `from`, inclusive of `to`), negative when
// `to` precedes `from`. It is the inverse of AddDays:
//
//	CountDaysBetween(s, AddDays(s, n, u, h), u, h) == n
func CountDaysBetween(from, to time.Time, unit models.DayUnit, holidays HolidaySet) (int, error) {
	if from.IsZero() || to.IsZero() {
		return 0, fmt.Errorf("count days: %w", ErrInvalidDate)
	}

	start, end := dateOnly(from), dateOnly(to)
	if end.Before(start) {
		n, err := CountDaysBetween(to, from, unit, holidays)
		return -n, err
	}

	if unit == models.CalendarDays {
		return int(end.Sub(start).Hours() / 24), nil
	}

	count := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d, holidays) {
			count++
		}
	}
	return count, nil
}
