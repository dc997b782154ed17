// Package dates holds the calendar arithmetic used by plans. Dates are civil
// dates with no time zone attached; callers convert instants with Today.
package dates

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a calendar date without a time zone.
type Date = civil.Date

// Layout is the wire form of a Date.
const Layout = "2006-01-02"

// Parse parses a YYYY-MM-DD string.
func Parse(s string) (Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for literals in fixtures and tests.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Today returns the civil date of now in now's location.
func Today(now time.Time) Date {
	return civil.DateOf(now)
}

// Midnight returns d at 00:00 UTC, the form rrule-go iterates over.
func Midnight(d Date) time.Time {
	return d.In(time.UTC)
}

// AddDays returns d shifted by n days, rolling over months and years.
func AddDays(d Date, n int) Date {
	return civil.DateOf(Midnight(d).AddDate(0, 0, n))
}

// AddMonths returns d shifted by n months. When the target month is shorter
// than d.Day the result is clamped to that month's last day, so Jan 31 + 1
// month is Feb 28 (or 29) rather than an overflow into March.
func AddMonths(d Date, n int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := d.Day
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// DaysInMonth reports the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DaysBetween returns the signed number of days from a to b.
func DaysBetween(a, b Date) int {
	return b.DaysSince(a)
}

// DaysUntil returns how many days remain from today until d; negative once d
// has passed.
func DaysUntil(d, today Date) int {
	return DaysBetween(today, d)
}

// IsPast reports whether d lies strictly before today.
func IsPast(d, today Date) bool {
	return d.Before(today)
}

// IsWithin reports whether d falls between today and n days from today,
// inclusive on both ends. It backs the "deadline soon" badge.
func IsWithin(d, today Date, n int) bool {
	days := DaysUntil(d, today)
	return days >= 0 && days <= n
}

// Compare orders two dates: -1 if a is before b, +1 if after, 0 if equal.
func Compare(a, b Date) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}
