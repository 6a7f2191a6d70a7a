// Package eventlist filters and sorts in-memory event snapshots. The engine
// is pure: it never mutates its input, never returns errors, and tolerates
// missing or malformed fields by excluding the record from the relevant
// bucket instead of failing.
package eventlist

import (
	"sort"
	"strings"
	"time"

	"github.com/boothworks/eventdesk/internal/dates"
)

// DateRange selects a calendar-day bucket for the start-date filter.
type DateRange string

const (
	DateRangeAll       DateRange = "all"
	DateRangeUpcoming  DateRange = "upcoming"
	DateRangePast      DateRange = "past"
	DateRangeThisMonth DateRange = "this_month"
	DateRangeCustom    DateRange = "custom"
)

// TaskFilter selects events by the completion state of their tasks.
type TaskFilter string

const (
	TaskFilterAll        TaskFilter = "all"
	TaskFilterIncomplete TaskFilter = "incomplete"
)

// SortKey selects the list comparator.
type SortKey string

const (
	SortDateAsc     SortKey = "date_asc"
	SortDateDesc    SortKey = "date_desc"
	SortTitleAsc    SortKey = "title_asc"
	SortTitleDesc   SortKey = "title_desc"
	SortAccountAsc  SortKey = "account_asc"
	SortAccountDesc SortKey = "account_desc"
)

// TaskCompletion is the per-event task state used by the incomplete filter.
type TaskCompletion struct {
	TaskID      string `json:"task_id"`
	IsCompleted bool   `json:"is_completed"`
	DueDate     string `json:"due_date,omitempty"`
}

// Event is an immutable snapshot of one event row. StartDate is a date or
// timestamp string; empty or unparseable values keep the event out of every
// date bucket and sort it after all dated events.
type Event struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Location        string           `json:"location"`
	AccountName     string           `json:"account_name"`
	StartDate       string           `json:"start_date"`
	Status          string           `json:"status"`
	AssignedTo      string           `json:"assigned_to,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	TaskCompletions []TaskCompletion `json:"task_completions,omitempty"`
}

// FilterState is the full set of user-selected criteria. It is a plain value,
// replaced wholesale on every interaction; zero values mean "no filtering".
type FilterState struct {
	SearchTerm      string
	DateRange       DateRange
	CustomDays      int
	TaskFilter      TaskFilter
	TaskDateRange   int
	SelectedTaskIDs []string
	AssignedTo      string
	Status          string
}

// Counts are the informational badges for the list view. Upcoming and Past
// are computed over the unfiltered list regardless of the active date filter.
type Counts struct {
	Total    int `json:"total"`
	Filtered int `json:"filtered"`
	Upcoming int `json:"upcoming"`
	Past     int `json:"past"`
}

// Result is one full filter+sort pass.
type Result struct {
	Events []Event `json:"events"`
	Counts Counts  `json:"counts"`
}

// Apply runs the filter pipeline and sort over events, relative to now.
func Apply(events []Event, state FilterState, sortBy SortKey, now time.Time) Result {
	filtered := Filter(events, state, now)
	sorted := Sort(filtered, sortBy)

	return Result{
		Events: sorted,
		Counts: countEvents(events, len(filtered), now),
	}
}

// Filter applies all predicates, AND-combined, returning a new slice.
func Filter(events []Event, state FilterState, now time.Time) []Event {
	today := dates.StartOfDay(now)
	search := strings.ToLower(strings.TrimSpace(state.SearchTerm))
	status := strings.ToLower(strings.TrimSpace(state.Status))
	assignedTo := strings.ToLower(strings.TrimSpace(state.AssignedTo))

	selected := make(map[string]bool, len(state.SelectedTaskIDs))
	for _, id := range state.SelectedTaskIDs {
		selected[id] = true
	}

	filtered := make([]Event, 0, len(events))
	for _, event := range events {
		if !matchesSearch(event, search) {
			continue
		}
		if !matchesDateRange(event, state, today) {
			continue
		}
		if !matchesTaskFilter(event, state, selected, today) {
			continue
		}
		if status != "" && strings.ToLower(strings.TrimSpace(event.Status)) != status {
			continue
		}
		if assignedTo != "" && strings.ToLower(strings.TrimSpace(event.AssignedTo)) != assignedTo {
			continue
		}
		filtered = append(filtered, event)
	}
	return filtered
}

// Sort returns a stably sorted copy of events. Entries with missing or
// unparseable sort keys go last under both directions; the direction suffix
// never reverses that placement.
func Sort(events []Event, sortBy SortKey) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)

	less := comparatorFor(sortBy)
	if less == nil {
		return sorted
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return less(sorted[i], sorted[j])
	})
	return sorted
}

func countEvents(events []Event, filtered int, now time.Time) Counts {
	today := dates.StartOfDay(now)
	counts := Counts{Total: len(events), Filtered: filtered}

	for _, event := range events {
		start, ok := dates.ParseLocal(event.StartDate)
		if !ok {
			continue
		}
		if start.Before(today) {
			counts.Past++
		} else {
			counts.Upcoming++
		}
	}
	return counts
}

func matchesSearch(event Event, search string) bool {
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(event.Title), search) ||
		strings.Contains(strings.ToLower(event.Location), search) ||
		strings.Contains(strings.ToLower(event.AccountName), search)
}

func matchesDateRange(event Event, state FilterState, today time.Time) bool {
	if state.DateRange == "" || state.DateRange == DateRangeAll {
		return true
	}

	start, ok := dates.ParseLocal(event.StartDate)
	if !ok {
		// Undated events never satisfy a date bucket.
		return false
	}

	switch state.DateRange {
	case DateRangeUpcoming:
		return !start.Before(today)
	case DateRangePast:
		return start.Before(today)
	case DateRangeThisMonth:
		return dates.SameMonth(start, today)
	case DateRangeCustom:
		if state.CustomDays <= 0 {
			return true
		}
		horizon := today.AddDate(0, 0, state.CustomDays)
		return !start.Before(today) && !start.After(horizon)
	default:
		return true
	}
}

func matchesTaskFilter(event Event, state FilterState, selected map[string]bool, today time.Time) bool {
	if state.TaskFilter != TaskFilterIncomplete {
		return true
	}

	window := state.TaskDateRange
	if window <= 0 {
		window = state.CustomDays
	}

	for _, completion := range event.TaskCompletions {
		if completion.IsCompleted {
			continue
		}
		if len(selected) > 0 && !selected[completion.TaskID] {
			continue
		}
		if window > 0 && !dueWithinWindow(completion.DueDate, today, window) {
			continue
		}
		return true
	}
	return false
}

// dueWithinWindow reports whether a due date falls inside the next `days`
// days. Completions without a due date always count, matching the readiness
// engine's treatment of undated tasks.
func dueWithinWindow(dueDate string, today time.Time, days int) bool {
	if strings.TrimSpace(dueDate) == "" {
		return true
	}
	due, ok := dates.ParseLocal(dueDate)
	if !ok {
		return false
	}
	return !due.Before(today) && !due.After(today.AddDate(0, 0, days))
}

func comparatorFor(sortBy SortKey) func(a, b Event) bool {
	switch sortBy {
	case SortDateAsc:
		return func(a, b Event) bool { return compareDates(a, b, false) }
	case SortDateDesc:
		return func(a, b Event) bool { return compareDates(a, b, true) }
	case SortTitleAsc:
		return func(a, b Event) bool { return compareStrings(a.Title, b.Title, false) }
	case SortTitleDesc:
		return func(a, b Event) bool { return compareStrings(a.Title, b.Title, true) }
	case SortAccountAsc:
		return func(a, b Event) bool { return compareStrings(a.AccountName, b.AccountName, false) }
	case SortAccountDesc:
		return func(a, b Event) bool { return compareStrings(a.AccountName, b.AccountName, true) }
	default:
		return nil
	}
}

func compareDates(a, b Event, desc bool) bool {
	dateA, okA := dates.ParseLocal(a.StartDate)
	dateB, okB := dates.ParseLocal(b.StartDate)

	// Undated entries always sort last, in both directions.
	if okA != okB {
		return okA
	}
	if !okA {
		return false
	}
	if dateA.Equal(dateB) {
		return false
	}
	if desc {
		return dateB.Before(dateA)
	}
	return dateA.Before(dateB)
}

func compareStrings(a, b string, desc bool) bool {
	valueA := strings.ToLower(strings.TrimSpace(a))
	valueB := strings.ToLower(strings.TrimSpace(b))

	// Blank values always sort last, in both directions.
	if (valueA == "") != (valueB == "") {
		return valueA != ""
	}
	if valueA == valueB {
		return false
	}
	if desc {
		return valueB < valueA
	}
	return valueA < valueB
}
