package readiness

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskStatusIsCompleted(t *testing.T) {
	cases := []struct {
		status TaskStatus
		expect bool
	}{
		{StatusNew, false},
		{StatusInProgress, false},
		{StatusBlocked, false},
		{StatusCancelled, false},
		{StatusCompleted, true},
		{StatusApproved, true},
		{TaskStatus("done"), false},
		{TaskStatus(""), false},
		{TaskStatus("COMPLETED"), false},
	}

	for _, tc := range cases {
		if got := tc.status.IsCompleted(); got != tc.expect {
			t.Fatalf("IsCompleted(%q) = %v, want %v", tc.status, got, tc.expect)
		}
	}
}

func TestCalculateEmptyTaskListIsNotReady(t *testing.T) {
	got := Calculate(nil, "")
	assert.Equal(t, Readiness{}, got)
	assert.False(t, got.IsReady)
	assert.False(t, got.HasTasks)

	got = Calculate([]Task{}, "2025-06-01")
	assert.False(t, got.IsReady)
	assert.Zero(t, got.Percentage)
}

func TestCalculateAllCompleted(t *testing.T) {
	tasks := []Task{
		{Status: StatusCompleted},
		{Status: StatusApproved},
		{Status: StatusCompleted},
	}

	got := Calculate(tasks, "")
	assert.Equal(t, Readiness{Total: 3, Completed: 3, Percentage: 100, IsReady: true, HasTasks: true}, got)
}

func TestCalculateMixedStatuses(t *testing.T) {
	tasks := []Task{
		{Status: StatusCompleted},
		{Status: StatusInProgress},
		{Status: StatusApproved},
	}

	got := Calculate(tasks, "")
	assert.Equal(t, Readiness{Total: 3, Completed: 2, Percentage: 67, IsReady: false, HasTasks: true}, got)
}

func TestCalculateIsOrderIndependent(t *testing.T) {
	tasks := []Task{
		{ID: "a", Status: StatusCompleted, DueDate: "2025-05-01"},
		{ID: "b", Status: StatusInProgress},
		{ID: "c", Status: StatusApproved, DueDate: "2025-07-01"},
		{ID: "d", Status: StatusNew, DueDate: "2025-05-20"},
	}

	want := Calculate(tasks, "2025-06-01")

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]Task, len(tasks))
		copy(shuffled, tasks)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, want, Calculate(shuffled, "2025-06-01"))
	}
}

func TestFilterPreEventTasks(t *testing.T) {
	tasks := []Task{
		{ID: "before", DueDate: "2025-05-30"},
		{ID: "same-day", DueDate: "2025-06-01"},
		{ID: "after", DueDate: "2025-06-02"},
		{ID: "no-due-date"},
		{ID: "timestamped", DueDate: "2025-06-01T18:30:00"},
		{ID: "malformed", DueDate: "not-a-date"},
	}

	got := FilterPreEventTasks(tasks, "2025-06-01")

	ids := make([]string, 0, len(got))
	for _, task := range got {
		ids = append(ids, task.ID)
	}
	// Same-day tasks are pre-event; a timestamp on the event day still counts
	// because comparison is day-granularity. Malformed due dates are excluded.
	assert.Equal(t, []string{"before", "same-day", "no-due-date", "timestamped"}, ids)
}

func TestFilterPreEventTasksNoEventDate(t *testing.T) {
	tasks := []Task{
		{ID: "a", DueDate: "2099-01-01"},
		{ID: "b"},
	}

	got := FilterPreEventTasks(tasks, "")
	require.Len(t, got, 2)
}

func TestFilterPreEventTasksIsSubset(t *testing.T) {
	tasks := []Task{
		{ID: "a", DueDate: "2025-01-01"},
		{ID: "b", DueDate: "2030-01-01"},
		{ID: "c"},
	}

	got := FilterPreEventTasks(tasks, "2025-06-01")
	byID := map[string]bool{}
	for _, task := range tasks {
		byID[task.ID] = true
	}
	for _, task := range got {
		assert.True(t, byID[task.ID], "filtered set must be a subset of the input")
	}
	assert.Contains(t, got, Task{ID: "c"}, "tasks without a due date are always retained")
}

func TestFilterPreEventTasksDoesNotMutateInput(t *testing.T) {
	tasks := []Task{
		{ID: "a", DueDate: "2030-01-01"},
		{ID: "b", DueDate: "2020-01-01"},
	}
	original := make([]Task, len(tasks))
	copy(original, tasks)

	_ = FilterPreEventTasks(tasks, "2025-06-01")
	assert.Equal(t, original, tasks)
}

func TestCalculateUnparseableEventDateAppliesNoFilter(t *testing.T) {
	tasks := []Task{
		{Status: StatusCompleted, DueDate: "2099-01-01"},
	}

	got := Calculate(tasks, "garbage")
	assert.Equal(t, 1, got.Total)
	assert.True(t, got.IsReady)
}

func TestCalculateBulk(t *testing.T) {
	tasks := []Task{
		{ID: "1", EntityID: "event-a", Status: StatusCompleted},
		{ID: "2", EntityID: "event-a", Status: StatusApproved},
		{ID: "3", EntityID: "event-b", Status: StatusInProgress},
		{ID: "4", EntityID: "event-unknown", Status: StatusCompleted},
	}

	got := CalculateBulk(tasks, []string{"event-a", "event-b", "event-c"}, nil)
	require.Len(t, got, 3)

	assert.True(t, got["event-a"].IsReady)
	assert.Equal(t, 2, got["event-a"].Total)

	assert.False(t, got["event-b"].IsReady)
	assert.Equal(t, Readiness{Total: 1, Completed: 0, Percentage: 0, IsReady: false, HasTasks: true}, got["event-b"])

	// Requested but task-free events still get an entry.
	assert.Equal(t, Readiness{}, got["event-c"])

	// Tasks pointing at unrequested events are dropped, not surfaced.
	_, ok := got["event-unknown"]
	assert.False(t, ok)
}

func TestCalculateBulkWithEventDates(t *testing.T) {
	tasks := []Task{
		{ID: "1", EntityID: "event-a", Status: StatusInProgress, DueDate: "2025-09-01"},
		{ID: "2", EntityID: "event-a", Status: StatusCompleted, DueDate: "2025-06-01"},
	}

	got := CalculateBulk(tasks, []string{"event-a"}, map[string]string{"event-a": "2025-07-01"})
	assert.Equal(t, Readiness{Total: 1, Completed: 1, Percentage: 100, IsReady: true, HasTasks: true}, got["event-a"])
}

func TestPartitionFilters(t *testing.T) {
	tasks := []Task{
		{ID: "a", Status: StatusNew},
		{ID: "b", Status: StatusCompleted},
		{ID: "c", Status: StatusApproved},
		{ID: "d", Status: StatusBlocked},
	}

	incomplete := IncompleteTasks(tasks)
	completed := CompletedTasks(tasks)

	require.Len(t, incomplete, 2)
	require.Len(t, completed, 2)
	assert.Equal(t, "a", incomplete[0].ID)
	assert.Equal(t, "d", incomplete[1].ID)
	assert.Equal(t, "b", completed[0].ID)
	assert.Equal(t, "c", completed[1].ID)
	assert.Len(t, tasks, 4, "partition filters must not mutate the input")
}

func TestPercentageRounding(t *testing.T) {
	cases := []struct {
		completed int
		total     int
		expect    int
	}{
		{1, 3, 33},
		{2, 3, 67},
		{1, 2, 50},
		{1, 8, 13},
		{5, 6, 83},
	}

	for _, tc := range cases {
		tasks := make([]Task, 0, tc.total)
		for i := 0; i < tc.completed; i++ {
			tasks = append(tasks, Task{Status: StatusCompleted})
		}
		for i := tc.completed; i < tc.total; i++ {
			tasks = append(tasks, Task{Status: StatusNew})
		}
		if got := Calculate(tasks, "").Percentage; got != tc.expect {
			t.Fatalf("percentage for %d/%d = %d, want %d", tc.completed, tc.total, got, tc.expect)
		}
	}
}
