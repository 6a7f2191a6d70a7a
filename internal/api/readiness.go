package api

import (
	"net/http"
	"strings"

	"github.com/boothworks/eventdesk/internal/readiness"
	"github.com/boothworks/eventdesk/internal/store"
)

// ReadinessResponse is one event's derived readiness, optionally with the
// task breakdown behind the numbers.
type ReadinessResponse struct {
	EventID         string              `json:"event_id"`
	Readiness       readiness.Readiness `json:"readiness"`
	IncompleteTasks []readiness.Task    `json:"incomplete_tasks,omitempty"`
	CompletedTasks  []readiness.Task    `json:"completed_tasks,omitempty"`
}

// GetEventReadiness handles GET /api/events/:id/readiness. By default only
// tasks due on or before the event date count; all_tasks=true widens the
// computation to every attached task.
func (h *EventHandler) GetEventReadiness(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}

	event, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		sendStoreError(w, err, "failed to load event")
		return
	}

	taskRows, err := h.Tasks.List(r.Context(), store.TaskListFilter{EntityID: &eventID})
	if err != nil {
		sendStoreError(w, err, "failed to load event tasks")
		return
	}

	tasks := toReadinessTasks(taskRows)
	eventDate := formatDate(event.StartDate)
	if r.URL.Query().Get("all_tasks") == "true" {
		// An empty cutoff disables the pre-event filter.
		eventDate = ""
	}

	scoped := readiness.FilterPreEventTasks(tasks, eventDate)
	sendJSON(w, http.StatusOK, ReadinessResponse{
		EventID:         eventID,
		Readiness:       readiness.Calculate(tasks, eventDate),
		IncompleteTasks: readiness.IncompleteTasks(scoped),
		CompletedTasks:  readiness.CompletedTasks(scoped),
	})
}

// BulkReadiness handles GET /api/events/readiness?ids=a,b,c. Every requested
// event appears in the response, including ones with no tasks.
func (h *EventHandler) BulkReadiness(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("ids"))
	if raw == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter: ids"})
		return
	}

	eventIDs := make([]string, 0)
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if !uuidRegex.MatchString(id) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event id"})
			return
		}
		eventIDs = append(eventIDs, id)
	}
	if len(eventIDs) == 0 {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter: ids"})
		return
	}

	rows, err := h.Events.List(r.Context(), store.EventFilter{})
	if err != nil {
		sendStoreError(w, err, "failed to list events")
		return
	}
	eventDates := make(map[string]string, len(rows))
	for _, row := range rows {
		eventDates[row.ID] = formatDate(row.StartDate)
	}

	taskRows, err := h.Tasks.ListByEntityIDs(r.Context(), eventIDs)
	if err != nil {
		sendStoreError(w, err, "failed to load event tasks")
		return
	}

	result := readiness.CalculateBulk(toReadinessTasks(taskRows), eventIDs, eventDates)
	sendJSON(w, http.StatusOK, map[string]map[string]readiness.Readiness{"readiness": result})
}

func toReadinessTasks(rows []store.Task) []readiness.Task {
	tasks := make([]readiness.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.ReadinessTask())
	}
	return tasks
}
