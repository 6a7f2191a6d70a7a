package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/boothworks/eventdesk/internal/readiness"
	"github.com/boothworks/eventdesk/internal/store"
	"github.com/boothworks/eventdesk/internal/ws"
)

var allowedTaskStatuses = map[readiness.TaskStatus]struct{}{
	readiness.StatusNew:        {},
	readiness.StatusInProgress: {},
	readiness.StatusBlocked:    {},
	readiness.StatusCompleted:  {},
	readiness.StatusApproved:   {},
	readiness.StatusCancelled:  {},
}

// TaskHandler manages task endpoints.
type TaskHandler struct {
	Tasks  *store.TaskStore
	Events *store.EventStore
	Hub    *ws.Hub
}

type CreateTaskRequest struct {
	EntityType string  `json:"entity_type,omitempty"`
	EntityID   *string `json:"entity_id,omitempty"`
	Title      string  `json:"title"`
	Status     string  `json:"status,omitempty"`
	DueDate    string  `json:"due_date,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

type TaskStatusRequest struct {
	Status string `json:"status"`
}

type TasksResponse struct {
	Tasks []store.Task `json:"tasks"`
}

// ListTasks handles GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	filter := store.TaskListFilter{}

	if status := normalizeTaskStatus(r.URL.Query().Get("status")); status != "" {
		if !isValidTaskStatus(status) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
			return
		}
		filter.Status = string(status)
	}

	if entityID := strings.TrimSpace(firstNonEmpty(r.URL.Query().Get("event_id"), r.URL.Query().Get("entity_id"))); entityID != "" {
		if !uuidRegex.MatchString(entityID) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event_id"})
			return
		}
		filter.EntityID = &entityID
	}

	if assignedTo := strings.TrimSpace(r.URL.Query().Get("assigned_to")); assignedTo != "" {
		filter.AssignedTo = &assignedTo
	}

	tasks, err := h.Tasks.List(r.Context(), filter)
	if err != nil {
		sendStoreError(w, err, "failed to list tasks")
		return
	}

	sendJSON(w, http.StatusOK, TasksResponse{Tasks: tasks})
}

// GetTask handles GET /api/tasks/:id
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := requireTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		sendStoreError(w, err, "failed to load task")
		return
	}

	sendJSON(w, http.StatusOK, task)
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing title"})
		return
	}
	if err := validateOptionalUUID(req.EntityID, "entity_id"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	status := normalizeTaskStatus(req.Status)
	if status == "" {
		status = readiness.StatusNew
	}
	if !isValidTaskStatus(status) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
		return
	}

	dueDate, err := parseDateField(req.DueDate)
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid due_date"})
		return
	}

	task, err := h.Tasks.Create(r.Context(), store.CreateTaskInput{
		EntityType: strings.TrimSpace(req.EntityType),
		EntityID:   req.EntityID,
		Title:      title,
		Status:     status,
		DueDate:    dueDate,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		sendStoreError(w, err, "failed to create task")
		return
	}

	if h.Hub != nil {
		h.Hub.Emit(task.OrgID, ws.MessageTaskCreated, task)
	}
	h.broadcastReadiness(r, task)
	sendJSON(w, http.StatusOK, task)
}

// UpdateTask handles PATCH /api/tasks/:id
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := requireTaskID(w, r)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	existing, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		sendStoreError(w, err, "failed to load task")
		return
	}

	input := store.UpdateTaskInput{
		EntityID:   existing.EntityID,
		Title:      existing.Title,
		Status:     existing.Status,
		DueDate:    existing.DueDate,
		AssignedTo: existing.AssignedTo,
	}

	if entityID, set, err := parseOptionalStringField(raw, "entity_id"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid entity_id"})
		return
	} else if set {
		if err := validateOptionalUUID(entityID, "entity_id"); err != nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		input.EntityID = entityID
	}

	if title, set, err := parseOptionalStringField(raw, "title"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid title"})
		return
	} else if set {
		if title == nil || strings.TrimSpace(*title) == "" {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "title cannot be empty"})
			return
		}
		input.Title = strings.TrimSpace(*title)
	}

	if status, set, err := parseOptionalStringField(raw, "status"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
		return
	} else if set {
		if status == nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "status cannot be null"})
			return
		}
		normalized := normalizeTaskStatus(*status)
		if !isValidTaskStatus(normalized) {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
			return
		}
		input.Status = normalized
	}

	if dueDate, set, err := parseOptionalStringField(raw, "due_date"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid due_date"})
		return
	} else if set {
		if dueDate == nil {
			input.DueDate = nil
		} else {
			parsed, err := parseDateField(*dueDate)
			if err != nil {
				sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid due_date"})
				return
			}
			input.DueDate = parsed
		}
	}

	if assignedTo, set, err := parseOptionalStringField(raw, "assigned_to"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assigned_to"})
		return
	} else if set {
		input.AssignedTo = assignedTo
	}

	task, err := h.Tasks.Update(r.Context(), taskID, input)
	if err != nil {
		sendStoreError(w, err, "failed to update task")
		return
	}

	if h.Hub != nil {
		h.Hub.Emit(task.OrgID, ws.MessageTaskUpdated, task)
	}
	h.broadcastReadiness(r, task)
	sendJSON(w, http.StatusOK, task)
}

// UpdateTaskStatus handles PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID, ok := requireTaskID(w, r)
	if !ok {
		return
	}

	var req TaskStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	status := normalizeTaskStatus(req.Status)
	if status == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing status"})
		return
	}
	if !isValidTaskStatus(status) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
		return
	}

	existing, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		sendStoreError(w, err, "failed to load task")
		return
	}

	task, err := h.Tasks.UpdateStatus(r.Context(), taskID, status)
	if err != nil {
		sendStoreError(w, err, "failed to update task status")
		return
	}

	if h.Hub != nil {
		h.Hub.Emit(task.OrgID, ws.MessageTaskStatusChanged, map[string]interface{}{
			"task":            task,
			"previous_status": existing.Status,
		})
	}
	h.broadcastReadiness(r, task)
	sendJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, ok := requireTaskID(w, r)
	if !ok {
		return
	}

	existing, err := h.Tasks.GetByID(r.Context(), taskID)
	if err != nil {
		sendStoreError(w, err, "failed to load task")
		return
	}

	if err := h.Tasks.Delete(r.Context(), taskID); err != nil {
		sendStoreError(w, err, "failed to delete task")
		return
	}

	h.broadcastReadiness(r, existing)
	sendJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": taskID})
}

// broadcastReadiness recomputes the owning event's readiness after a task
// change and pushes it to the org. Best effort: failures are dropped, the
// next list refresh will catch up.
func (h *TaskHandler) broadcastReadiness(r *http.Request, task *store.Task) {
	if h.Hub == nil || h.Events == nil || task == nil || task.EntityID == nil || task.EntityType != "event" {
		return
	}

	eventID := *task.EntityID
	event, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		return
	}
	taskRows, err := h.Tasks.List(r.Context(), store.TaskListFilter{EntityID: &eventID})
	if err != nil {
		return
	}

	result := readiness.Calculate(toReadinessTasks(taskRows), formatDate(event.StartDate))
	h.Hub.Emit(task.OrgID, ws.MessageEventReadinessChanged, map[string]interface{}{
		"event_id":  eventID,
		"readiness": result,
	})
}

func requireTaskID(w http.ResponseWriter, r *http.Request) (string, bool) {
	taskID := strings.TrimSpace(chi.URLParam(r, "id"))
	if taskID == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing task id"})
		return "", false
	}
	if !uuidRegex.MatchString(taskID) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid task id"})
		return "", false
	}
	return taskID, true
}

func normalizeTaskStatus(value string) readiness.TaskStatus {
	return readiness.TaskStatus(strings.ToLower(strings.TrimSpace(value)))
}

func isValidTaskStatus(status readiness.TaskStatus) bool {
	_, ok := allowedTaskStatuses[status]
	return ok
}
