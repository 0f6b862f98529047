package model

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout dates are persisted with.
const DateFormat = "2006-01-02"

const readDateFormat = "2006-1-2" // permissive, accepts 2025-7-1

// ParseDate parses a persisted date string into midnight UTC of that day.
// A full timestamp is accepted too, only its date part is kept.
func ParseDate(s string) (time.Time, error) {
	day, _, _ := strings.Cut(strings.TrimSpace(s), "T")
	t, err := time.Parse(readDateFormat, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q want format %q: %w", s, DateFormat, err)
	}
	return t, nil
}

// FormatDate formats the calendar date of t.
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DayOf truncates t to its calendar date in t's own location, expressed as midnight UTC.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// YearOf returns the year of a persisted date string.
func YearOf(s string) (int, bool) {
	t, err := ParseDate(s)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}

// CompareDates orders two persisted date strings chronologically.
// Unparseable dates sort after valid ones.
func CompareDates(a, b string) int {
	ta, errA := ParseDate(a)
	tb, errB := ParseDate(b)
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return ta.Compare(tb)
}
