// Package dates provides day-granularity date handling shared by the
// readiness and event list engines. All comparisons in those engines are
// calendar-day comparisons in local time.
package dates

import (
	"strings"
	"time"
)

// Accepted input layouts, most specific first. Date-only values are anchored
// at local midnight rather than UTC so same-day comparisons do not shift
// across timezones.
var layouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseLocal parses a date or timestamp string and truncates it to local
// midnight. The second return value is false for empty or unparseable input.
func ParseLocal(value string) (time.Time, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		parsed, err := time.ParseInLocation(layout, trimmed, time.Local)
		if err != nil {
			continue
		}
		return StartOfDay(parsed.In(time.Local)), true
	}

	return time.Time{}, false
}

// StartOfDay returns t truncated to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// SameMonth reports whether a and b fall in the same calendar month and year.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
