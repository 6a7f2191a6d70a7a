package eventlist

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 11, 1, 12, 0, 0, 0, time.Local)

func sampleEvents() []Event {
	return []Event{
		{ID: "1", Title: "Birthday Party", Location: "Austin", AccountName: "Smith Family", StartDate: "2025-11-15", Status: "confirmed"},
		{ID: "2", Title: "Wedding", Location: "Dallas", AccountName: "Jones Family", StartDate: "2025-10-15", Status: "completed"},
		{ID: "3", Title: "Corporate Gala", Location: "Houston", AccountName: "Acme Corp", StartDate: "2025-11-20", Status: "confirmed"},
		{ID: "4", Title: "Festival Booth", Location: "Austin", AccountName: "City Events", StartDate: "2025-12-05", Status: "pending"},
		{ID: "5", Title: "Undated Inquiry", Location: "Waco", AccountName: "Acme Corp", StartDate: "", Status: "pending"},
	}
}

func eventIDs(events []Event) []string {
	ids := make([]string, 0, len(events))
	for _, event := range events {
		ids = append(ids, event.ID)
	}
	return ids
}

func TestFilterSearchTerm(t *testing.T) {
	events := sampleEvents()

	got := Filter(events, FilterState{SearchTerm: "austin"}, testNow)
	assert.Equal(t, []string{"1", "4"}, eventIDs(got))

	got = Filter(events, FilterState{SearchTerm: "ACME"}, testNow)
	assert.Equal(t, []string{"3", "5"}, eventIDs(got))

	got = Filter(events, FilterState{SearchTerm: "wedding"}, testNow)
	assert.Equal(t, []string{"2"}, eventIDs(got))

	got = Filter(events, FilterState{SearchTerm: "   "}, testNow)
	assert.Len(t, got, len(events), "whitespace-only search is a no-op")
}

func TestFilterUpcoming(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "Birthday Party", StartDate: "2025-11-15"},
		{ID: "2", Title: "Wedding", StartDate: "2025-10-15"},
	}

	got := Filter(events, FilterState{DateRange: DateRangeUpcoming}, testNow)
	require.Len(t, got, 1)
	assert.Equal(t, "Birthday Party", got[0].Title)
}

func TestFilterDateBuckets(t *testing.T) {
	events := sampleEvents()

	upcoming := Filter(events, FilterState{DateRange: DateRangeUpcoming}, testNow)
	assert.Equal(t, []string{"1", "3", "4"}, eventIDs(upcoming))

	past := Filter(events, FilterState{DateRange: DateRangePast}, testNow)
	assert.Equal(t, []string{"2"}, eventIDs(past))

	thisMonth := Filter(events, FilterState{DateRange: DateRangeThisMonth}, testNow)
	assert.Equal(t, []string{"1", "3"}, eventIDs(thisMonth))

	all := Filter(events, FilterState{DateRange: DateRangeAll}, testNow)
	assert.Len(t, all, len(events))
}

func TestFilterSameDayEventIsUpcoming(t *testing.T) {
	events := []Event{
		{ID: "today", StartDate: testNow.Format("2006-01-02")},
	}

	got := Filter(events, FilterState{DateRange: DateRangeUpcoming}, testNow)
	assert.Len(t, got, 1, "events on the current day count as upcoming")

	got = Filter(events, FilterState{DateRange: DateRangePast}, testNow)
	assert.Empty(t, got)
}

func TestFilterExcludesUndatedEventsFromDateBuckets(t *testing.T) {
	events := []Event{
		{ID: "undated"},
		{ID: "malformed", StartDate: "soon"},
		{ID: "dated", StartDate: "2025-11-10"},
	}

	for _, bucket := range []DateRange{DateRangeUpcoming, DateRangePast, DateRangeThisMonth} {
		got := Filter(events, FilterState{DateRange: bucket}, testNow)
		for _, event := range got {
			assert.NotEqual(t, "undated", event.ID, "bucket %s leaked an undated event", bucket)
			assert.NotEqual(t, "malformed", event.ID, "bucket %s leaked a malformed event", bucket)
		}
	}
}

func TestFilterCustomDays(t *testing.T) {
	events := []Event{
		{ID: "near", StartDate: "2025-11-05"},
		{ID: "edge", StartDate: "2025-11-08"},
		{ID: "far", StartDate: "2025-11-09"},
		{ID: "past", StartDate: "2025-10-20"},
	}

	got := Filter(events, FilterState{DateRange: DateRangeCustom, CustomDays: 7}, testNow)
	assert.Equal(t, []string{"near", "edge"}, eventIDs(got))
}

func TestFilterIncompleteTasks(t *testing.T) {
	events := []Event{
		{ID: "has-incomplete", TaskCompletions: []TaskCompletion{
			{TaskID: "t1", IsCompleted: true},
			{TaskID: "t2", IsCompleted: false},
		}},
		{ID: "all-done", TaskCompletions: []TaskCompletion{
			{TaskID: "t3", IsCompleted: true},
		}},
		{ID: "no-tasks"},
	}

	got := Filter(events, FilterState{TaskFilter: TaskFilterIncomplete}, testNow)
	assert.Equal(t, []string{"has-incomplete"}, eventIDs(got))
}

func TestFilterIncompleteTasksSelectedIDs(t *testing.T) {
	events := []Event{
		{ID: "a", TaskCompletions: []TaskCompletion{{TaskID: "setup", IsCompleted: false}}},
		{ID: "b", TaskCompletions: []TaskCompletion{{TaskID: "teardown", IsCompleted: false}}},
	}

	state := FilterState{TaskFilter: TaskFilterIncomplete, SelectedTaskIDs: []string{"setup"}}
	got := Filter(events, state, testNow)
	assert.Equal(t, []string{"a"}, eventIDs(got))
}

func TestFilterIncompleteTasksDueWindow(t *testing.T) {
	events := []Event{
		{ID: "due-soon", TaskCompletions: []TaskCompletion{{TaskID: "t1", DueDate: "2025-11-03"}}},
		{ID: "due-later", TaskCompletions: []TaskCompletion{{TaskID: "t2", DueDate: "2025-12-25"}}},
		{ID: "undated-task", TaskCompletions: []TaskCompletion{{TaskID: "t3"}}},
	}

	state := FilterState{TaskFilter: TaskFilterIncomplete, TaskDateRange: 14}
	got := Filter(events, state, testNow)
	assert.Equal(t, []string{"due-soon", "undated-task"}, eventIDs(got))
}

func TestFilterStatusCaseInsensitive(t *testing.T) {
	events := sampleEvents()

	got := Filter(events, FilterState{Status: "CONFIRMED"}, testNow)
	assert.Equal(t, []string{"1", "3"}, eventIDs(got))
}

func TestFilterAssignedTo(t *testing.T) {
	events := []Event{
		{ID: "a", AssignedTo: "dana"},
		{ID: "b", AssignedTo: "Morgan"},
		{ID: "c"},
	}

	got := Filter(events, FilterState{AssignedTo: "morgan"}, testNow)
	assert.Equal(t, []string{"b"}, eventIDs(got))
}

func TestFilterPredicatesCombine(t *testing.T) {
	events := sampleEvents()

	state := FilterState{
		SearchTerm: "austin",
		DateRange:  DateRangeUpcoming,
		Status:     "confirmed",
	}
	got := Filter(events, state, testNow)
	assert.Equal(t, []string{"1"}, eventIDs(got))
}

func TestSortByDate(t *testing.T) {
	events := []Event{
		{ID: "late", StartDate: "2025-12-05"},
		{ID: "undated"},
		{ID: "early", StartDate: "2025-10-15"},
		{ID: "mid", StartDate: "2025-11-15"},
	}

	asc := Sort(events, SortDateAsc)
	assert.Equal(t, []string{"early", "mid", "late", "undated"}, eventIDs(asc))

	desc := Sort(events, SortDateDesc)
	assert.Equal(t, []string{"late", "mid", "early", "undated"}, eventIDs(desc))
}

func TestSortByTitleReversalSymmetry(t *testing.T) {
	events := []Event{
		{ID: "c", Title: "Wedding"},
		{ID: "a", Title: "birthday"},
		{ID: "b", Title: "Gala"},
	}

	asc := Sort(events, SortTitleAsc)
	desc := Sort(events, SortTitleDesc)

	reversed := make([]string, 0, len(asc))
	for i := len(asc) - 1; i >= 0; i-- {
		reversed = append(reversed, asc[i].ID)
	}
	assert.Equal(t, reversed, eventIDs(desc), "desc equals reversed asc when no titles are blank")
}

func TestSortBlankTitlesLastBothDirections(t *testing.T) {
	events := []Event{
		{ID: "blank", Title: ""},
		{ID: "z", Title: "Zebra Gala"},
		{ID: "a", Title: "Anniversary"},
		{ID: "spaces", Title: "   "},
	}

	asc := Sort(events, SortTitleAsc)
	assert.Equal(t, []string{"a", "z", "blank", "spaces"}, eventIDs(asc))

	desc := Sort(events, SortTitleDesc)
	assert.Equal(t, []string{"z", "a", "blank", "spaces"}, eventIDs(desc))
}

func TestSortByAccount(t *testing.T) {
	events := []Event{
		{ID: "1", AccountName: "smith family"},
		{ID: "2", AccountName: "Acme Corp"},
		{ID: "3", AccountName: ""},
		{ID: "4", AccountName: "Jones Family"},
	}

	asc := Sort(events, SortAccountAsc)
	assert.Equal(t, []string{"2", "4", "1", "3"}, eventIDs(asc))

	desc := Sort(events, SortAccountDesc)
	assert.Equal(t, []string{"1", "4", "2", "3"}, eventIDs(desc))
}

func TestSortIsStableOnEqualKeys(t *testing.T) {
	events := []Event{
		{ID: "first", Title: "Same", StartDate: "2025-11-15"},
		{ID: "second", Title: "Same", StartDate: "2025-11-15"},
		{ID: "third", Title: "Same", StartDate: "2025-11-15"},
	}

	for _, key := range []SortKey{SortDateAsc, SortDateDesc, SortTitleAsc, SortTitleDesc} {
		got := Sort(events, key)
		assert.Equal(t, []string{"first", "second", "third"}, eventIDs(got), "sort key %s broke input order", key)
	}
}

func TestSortHandlesUnicodeAndSymbols(t *testing.T) {
	events := []Event{
		{ID: "1", Title: "Fête d'été 🎉"},
		{ID: "2", Title: "25% off!! <booth>"},
		{ID: "3", Title: "深圳展览"},
	}

	got := Sort(events, SortTitleAsc)
	require.Len(t, got, 3)
	got = Sort(events, SortTitleDesc)
	require.Len(t, got, 3)
}

func TestSortDoesNotMutateInput(t *testing.T) {
	events := sampleEvents()
	original := make([]Event, len(events))
	copy(original, events)

	_ = Sort(events, SortTitleDesc)
	assert.Equal(t, original, events)
}

func TestApplyCounts(t *testing.T) {
	events := sampleEvents()

	result := Apply(events, FilterState{DateRange: DateRangePast}, SortDateAsc, testNow)

	assert.Equal(t, 5, result.Counts.Total)
	assert.Equal(t, 1, result.Counts.Filtered)
	// Upcoming/past badges ignore the active date filter. The undated event
	// is in neither bucket.
	assert.Equal(t, 3, result.Counts.Upcoming)
	assert.Equal(t, 1, result.Counts.Past)
	assert.GreaterOrEqual(t, result.Counts.Total, result.Counts.Filtered)
}

func TestApplyTotalNeverBelowFiltered(t *testing.T) {
	events := sampleEvents()
	states := []FilterState{
		{},
		{SearchTerm: "zzz-no-match"},
		{DateRange: DateRangeUpcoming, Status: "pending"},
		{TaskFilter: TaskFilterIncomplete},
	}

	for _, state := range states {
		result := Apply(events, state, SortDateAsc, testNow)
		assert.GreaterOrEqual(t, result.Counts.Total, result.Counts.Filtered)
	}
}

func generateEvents(n int) []Event {
	rng := rand.New(rand.NewSource(7))
	statuses := []string{"pending", "confirmed", "completed", "cancelled"}
	events := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		start := testNow.AddDate(0, 0, rng.Intn(365)-180)
		events = append(events, Event{
			ID:          fmt.Sprintf("event-%d", i),
			Title:       fmt.Sprintf("Event %c %d", 'A'+rng.Intn(26), i),
			Location:    fmt.Sprintf("City %d", rng.Intn(40)),
			AccountName: fmt.Sprintf("Account %d", rng.Intn(120)),
			StartDate:   start.Format("2006-01-02"),
			Status:      statuses[rng.Intn(len(statuses))],
		})
	}
	return events
}

func TestSortLargeListPreservesMembership(t *testing.T) {
	events := generateEvents(1000)

	for _, key := range []SortKey{SortDateAsc, SortDateDesc, SortTitleAsc, SortTitleDesc, SortAccountAsc, SortAccountDesc} {
		start := time.Now()
		sorted := Sort(events, key)
		elapsed := time.Since(start)

		require.Len(t, sorted, len(events), "sort key %s changed list length", key)
		seen := make(map[string]int, len(sorted))
		for _, event := range sorted {
			seen[event.ID]++
		}
		for _, event := range events {
			require.Equal(t, 1, seen[event.ID], "sort key %s dropped or duplicated %s", key, event.ID)
		}

		assert.Less(t, elapsed, 100*time.Millisecond, "sort key %s took too long", key)
	}
}

func BenchmarkApply1000Events(b *testing.B) {
	events := generateEvents(1000)
	state := FilterState{SearchTerm: "event", DateRange: DateRangeUpcoming}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Apply(events, state, SortDateDesc, testNow)
	}
}
