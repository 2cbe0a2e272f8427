// Package timeutil provides UTC calendar-day utilities for the progress engine.
// Every derived metric (streaks, weekly goals, hour-of-day profiles) is defined
// over UTC calendar days, so all helpers here normalize to UTC first.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// epoch is the reference day for DayNumber. Unix epoch, midnight UTC.
var epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// DayNumber returns the UTC calendar-day ordinal of t: the number of whole
// days since the Unix epoch. Consecutive calendar days always differ by
// exactly 1, regardless of DST or the wall-clock offset of t.
func DayNumber(t time.Time) int {
	return int(StartOfDay(t).Sub(epoch) / (24 * time.Hour))
}

// StartOfDay returns midnight UTC of the calendar day containing t.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// IsSameDay reports whether two times fall on the same UTC calendar day.
func IsSameDay(a, b time.Time) bool {
	return DayNumber(a) == DayNumber(b)
}

// IsConsecutiveDay reports whether b falls on the calendar day after a.
func IsConsecutiveDay(a, b time.Time) bool {
	return DayNumber(b)-DayNumber(a) == 1
}

// DaysSince returns the number of calendar days from t to now.
func DaysSince(t time.Time, now time.Time) int {
	return DayNumber(now) - DayNumber(t)
}

// FormatDate is the standard date format (YYYY-MM-DD).
const FormatDate = "2006-01-02"

// FormatDateStr formats a time as a UTC date string (YYYY-MM-DD).
func FormatDateStr(t time.Time) string {
	return t.UTC().Format(FormatDate)
}
