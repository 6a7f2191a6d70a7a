// Package readiness computes task-completion state for events. All functions
// are pure: they operate on in-memory snapshots, never mutate their inputs,
// and never return errors. Malformed dates degrade to "not pre-event" rather
// than failing the computation.
package readiness

import (
	"math"

	"github.com/boothworks/eventdesk/internal/dates"
)

// TaskStatus is the closed set of task states. Unknown strings scan into the
// type fine but always count as not completed.
type TaskStatus string

const (
	StatusNew        TaskStatus = "new"
	StatusInProgress TaskStatus = "in_progress"
	StatusBlocked    TaskStatus = "blocked"
	StatusCompleted  TaskStatus = "completed"
	StatusApproved   TaskStatus = "approved"
	StatusCancelled  TaskStatus = "cancelled"
)

// IsCompleted reports whether the status counts toward readiness. This is the
// single completion predicate; there is deliberately no other place that
// inspects status strings.
func (s TaskStatus) IsCompleted() bool {
	switch s {
	case StatusCompleted, StatusApproved:
		return true
	}
	return false
}

// Task is the readiness-relevant snapshot of a task. DueDate is a date or
// timestamp string; empty means no due date.
type Task struct {
	ID         string     `json:"id"`
	EntityType string     `json:"entity_type,omitempty"`
	EntityID   string     `json:"entity_id,omitempty"`
	Status     TaskStatus `json:"status"`
	DueDate    string     `json:"due_date,omitempty"`
}

// Readiness is the derived completion state for one event. It is computed
// fresh on every call and never persisted.
type Readiness struct {
	Total      int  `json:"total"`
	Completed  int  `json:"completed"`
	Percentage int  `json:"percentage"`
	IsReady    bool `json:"is_ready"`
	HasTasks   bool `json:"has_tasks"`
}

// FilterPreEventTasks returns the tasks due on or before eventDate. Tasks
// without a due date are always retained; tasks with an unparseable due date
// are excluded. An empty eventDate applies no filtering.
func FilterPreEventTasks(tasks []Task, eventDate string) []Task {
	if eventDate == "" {
		return tasks
	}

	cutoff, ok := dates.ParseLocal(eventDate)
	if !ok {
		return tasks
	}

	filtered := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.DueDate == "" {
			filtered = append(filtered, task)
			continue
		}
		due, ok := dates.ParseLocal(task.DueDate)
		if !ok {
			continue
		}
		if !due.After(cutoff) {
			filtered = append(filtered, task)
		}
	}
	return filtered
}

// Calculate computes readiness for one event's tasks, restricted to the
// pre-event window when eventDate is set. An empty task set is explicitly
// "not ready": zero tasks must never read as success.
func Calculate(tasks []Task, eventDate string) Readiness {
	relevant := FilterPreEventTasks(tasks, eventDate)
	if len(relevant) == 0 {
		return Readiness{}
	}

	completed := 0
	for _, task := range relevant {
		if task.Status.IsCompleted() {
			completed++
		}
	}

	total := len(relevant)
	return Readiness{
		Total:      total,
		Completed:  completed,
		Percentage: int(math.Round(100 * float64(completed) / float64(total))),
		IsReady:    completed == total,
		HasTasks:   true,
	}
}

// CalculateBulk computes readiness for many events from a flat task list,
// grouping tasks by EntityID. Every requested event ID gets an entry even
// when no tasks reference it; tasks pointing at unrequested events are
// silently dropped. eventDates may be nil.
func CalculateBulk(tasks []Task, eventIDs []string, eventDates map[string]string) map[string]Readiness {
	buckets := make(map[string][]Task, len(eventIDs))
	for _, id := range eventIDs {
		buckets[id] = nil
	}

	for _, task := range tasks {
		if _, ok := buckets[task.EntityID]; !ok {
			continue
		}
		buckets[task.EntityID] = append(buckets[task.EntityID], task)
	}

	result := make(map[string]Readiness, len(eventIDs))
	for id, bucket := range buckets {
		result[id] = Calculate(bucket, eventDates[id])
	}
	return result
}

// IncompleteTasks returns the tasks not yet completed. No due-date filtering
// is applied; the input is taken as-is.
func IncompleteTasks(tasks []Task) []Task {
	incomplete := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if !task.Status.IsCompleted() {
			incomplete = append(incomplete, task)
		}
	}
	return incomplete
}

// CompletedTasks returns the tasks counted as completed.
func CompletedTasks(tasks []Task) []Task {
	completed := make([]Task, 0, len(tasks))
	for _, task := range tasks {
		if task.Status.IsCompleted() {
			completed = append(completed, task)
		}
	}
	return completed
}
