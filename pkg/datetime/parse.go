// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/carlitos-finanzas/carlitos/pkg/constants"
)

const (
	// DateTimeLayout is the month format used for schedule labels.
	DateTimeLayout = constants.DateTimeLayout
)

// OffsetDate returns the string-formatted date offset by the given number of
// months relative to the given date.
func OffsetDate(date, layout string, months int) (string, error) {
	t, err := time.Parse(layout, date)
	if err != nil {
		return date, err
	}
	return t.AddDate(0, months, 0).Format(layout), nil
}

// MonthOf truncates t to the first instant of its month, in t's location.
func MonthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DaysBetween returns the number of whole calendar days from earlier to
// later. It is negative when earlier is after later.
func DaysBetween(earlier, later time.Time) int {
	a := StartOfDay(earlier.In(later.Location()))
	b := StartOfDay(later)
	// Dates built from y/m/d in UTC avoid DST shifts.
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
