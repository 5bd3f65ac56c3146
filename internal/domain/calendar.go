package domain

import (
	"fmt"
	"time"
)

// ParseDate parses "YYYY-MM-DD" and returns local midnight of that calendar day in loc
// The date is assembled from year/month/day components so the weekday never shifts
// because of the process or database timezone
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	parsed, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected %s", s, DateFormat)
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), nil
}

// DayKeyOf returns the day key for the calendar day of date in its own location
func DayKeyOf(date time.Time) DayKey {
	return dayKeys[date.Weekday()]
}

// DayBounds returns the inclusive [start, end] window of the calendar day of date
// end is the last representable instant before the next local midnight
func DayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	next := time.Date(date.Year(), date.Month(), date.Day()+1, 0, 0, 0, 0, date.Location())
	return start, next.Add(-time.Nanosecond)
}
