package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/boothworks/eventdesk/internal/eventlist"
	"github.com/boothworks/eventdesk/internal/store"
	"github.com/boothworks/eventdesk/internal/ws"
)

var allowedEventStatuses = map[string]struct{}{
	"draft":     {},
	"planned":   {},
	"confirmed": {},
	"completed": {},
	"cancelled": {},
}

// EventHandler manages event endpoints.
type EventHandler struct {
	Events *store.EventStore
	Tasks  *store.TaskStore
	Hub    *ws.Hub
}

type CreateEventRequest struct {
	AccountID  *string  `json:"account_id,omitempty"`
	Title      string   `json:"title"`
	Location   *string  `json:"location,omitempty"`
	VenueLat   *float64 `json:"venue_lat,omitempty"`
	VenueLng   *float64 `json:"venue_lng,omitempty"`
	StartDate  string   `json:"start_date,omitempty"`
	Status     string   `json:"status,omitempty"`
	AssignedTo *string  `json:"assigned_to,omitempty"`
}

// ListEvents handles GET /api/events. Coarse filtering happens in SQL; the
// search, date-bucket, and task filters plus sorting run in memory so the
// counts can cover the whole org list.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	state, sortBy, accountID, err := parseListQuery(r)
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	rows, err := h.Events.List(r.Context(), store.EventFilter{AccountID: accountID})
	if err != nil {
		sendStoreError(w, err, "failed to list events")
		return
	}

	eventIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		eventIDs = append(eventIDs, row.ID)
	}
	taskRows, err := h.Tasks.ListByEntityIDs(r.Context(), eventIDs)
	if err != nil {
		sendStoreError(w, err, "failed to load event tasks")
		return
	}

	result := eventlist.Apply(toListEvents(rows, taskRows), state, sortBy, time.Now())
	sendJSON(w, http.StatusOK, result)
}

// GetEvent handles GET /api/events/:id
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}

	event, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		sendStoreError(w, err, "failed to load event")
		return
	}

	sendJSON(w, http.StatusOK, event)
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing title"})
		return
	}
	if err := validateOptionalUUID(req.AccountID, "account_id"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	status := strings.ToLower(strings.TrimSpace(req.Status))
	if status == "" {
		status = "planned"
	}
	if _, ok := allowedEventStatuses[status]; !ok {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
		return
	}

	startDate, err := parseDateField(req.StartDate)
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid start_date"})
		return
	}

	event, err := h.Events.Create(r.Context(), store.CreateEventInput{
		AccountID:  req.AccountID,
		Title:      title,
		Location:   req.Location,
		VenueLat:   req.VenueLat,
		VenueLng:   req.VenueLng,
		StartDate:  startDate,
		Status:     status,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		sendStoreError(w, err, "failed to create event")
		return
	}

	if h.Hub != nil {
		h.Hub.Emit(event.OrgID, ws.MessageEventCreated, event)
	}
	sendJSON(w, http.StatusOK, event)
}

// UpdateEvent handles PATCH /api/events/:id
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	existing, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		sendStoreError(w, err, "failed to load event")
		return
	}

	input := store.UpdateEventInput{
		AccountID:  existing.AccountID,
		Title:      existing.Title,
		Location:   existing.Location,
		VenueLat:   existing.VenueLat,
		VenueLng:   existing.VenueLng,
		StartDate:  existing.StartDate,
		Status:     existing.Status,
		AssignedTo: existing.AssignedTo,
	}

	if accountID, set, err := parseOptionalStringField(raw, "account_id"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account_id"})
		return
	} else if set {
		if err := validateOptionalUUID(accountID, "account_id"); err != nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		input.AccountID = accountID
	}

	if title, set, err := parseOptionalStringField(raw, "title"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid title"})
		return
	} else if set {
		if title == nil || strings.TrimSpace(*title) == "" {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "title cannot be empty"})
			return
		}
		trimmed := strings.TrimSpace(*title)
		input.Title = trimmed
	}

	if location, set, err := parseOptionalStringField(raw, "location"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid location"})
		return
	} else if set {
		input.Location = location
	}

	if lat, set, err := parseOptionalFloatField(raw, "venue_lat"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue_lat"})
		return
	} else if set {
		input.VenueLat = lat
	}

	if lng, set, err := parseOptionalFloatField(raw, "venue_lng"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid venue_lng"})
		return
	} else if set {
		input.VenueLng = lng
	}

	if startDate, set, err := parseOptionalStringField(raw, "start_date"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid start_date"})
		return
	} else if set {
		if startDate == nil {
			input.StartDate = nil
		} else {
			parsed, err := parseDateField(*startDate)
			if err != nil {
				sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid start_date"})
				return
			}
			input.StartDate = parsed
		}
	}

	if status, set, err := parseOptionalStringField(raw, "status"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
		return
	} else if set {
		if status == nil {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "status cannot be null"})
			return
		}
		normalized := strings.ToLower(strings.TrimSpace(*status))
		if _, ok := allowedEventStatuses[normalized]; !ok {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid status"})
			return
		}
		input.Status = normalized
	}

	if assignedTo, set, err := parseOptionalStringField(raw, "assigned_to"); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid assigned_to"})
		return
	} else if set {
		input.AssignedTo = assignedTo
	}

	event, err := h.Events.Update(r.Context(), eventID, input)
	if err != nil {
		sendStoreError(w, err, "failed to update event")
		return
	}

	if h.Hub != nil {
		h.Hub.Emit(event.OrgID, ws.MessageEventUpdated, event)
	}
	sendJSON(w, http.StatusOK, event)
}

// DeleteEvent handles DELETE /api/events/:id
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}

	existing, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		sendStoreError(w, err, "failed to load event")
		return
	}

	if err := h.Events.Delete(r.Context(), eventID); err != nil {
		sendStoreError(w, err, "failed to delete event")
		return
	}

	if h.Hub != nil {
		h.Hub.Emit(existing.OrgID, ws.MessageEventDeleted, map[string]string{"id": eventID})
	}
	sendJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": eventID})
}

func requireEventID(w http.ResponseWriter, r *http.Request) (string, bool) {
	eventID := strings.TrimSpace(chi.URLParam(r, "id"))
	if eventID == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing event id"})
		return "", false
	}
	if !uuidRegex.MatchString(eventID) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid event id"})
		return "", false
	}
	return eventID, true
}

// parseListQuery translates list query parameters into an engine filter
// state. Unknown enum values are rejected rather than ignored.
func parseListQuery(r *http.Request) (eventlist.FilterState, eventlist.SortKey, *string, error) {
	q := r.URL.Query()
	state := eventlist.FilterState{
		SearchTerm: strings.TrimSpace(q.Get("search")),
		AssignedTo: strings.TrimSpace(q.Get("assigned_to")),
		Status:     strings.ToLower(strings.TrimSpace(q.Get("status"))),
	}

	switch dateRange := eventlist.DateRange(strings.TrimSpace(q.Get("date_range"))); dateRange {
	case "", eventlist.DateRangeAll:
		state.DateRange = eventlist.DateRangeAll
	case eventlist.DateRangeUpcoming, eventlist.DateRangePast, eventlist.DateRangeThisMonth, eventlist.DateRangeCustom:
		state.DateRange = dateRange
	default:
		return state, "", nil, errInvalidParam("date_range")
	}

	if raw := strings.TrimSpace(q.Get("custom_days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return state, "", nil, errInvalidParam("custom_days")
		}
		state.CustomDays = days
	}

	switch taskFilter := eventlist.TaskFilter(strings.TrimSpace(q.Get("task_filter"))); taskFilter {
	case "", eventlist.TaskFilterAll:
		state.TaskFilter = eventlist.TaskFilterAll
	case eventlist.TaskFilterIncomplete:
		state.TaskFilter = taskFilter
	default:
		return state, "", nil, errInvalidParam("task_filter")
	}

	if raw := strings.TrimSpace(q.Get("task_window")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 0 {
			return state, "", nil, errInvalidParam("task_window")
		}
		state.TaskDateRange = days
	}

	if raw := strings.TrimSpace(q.Get("task_ids")); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			state.SelectedTaskIDs = append(state.SelectedTaskIDs, id)
		}
	}

	sortBy := eventlist.SortKey(strings.TrimSpace(q.Get("sort")))
	switch sortBy {
	case "":
		sortBy = eventlist.SortDateAsc
	case eventlist.SortDateAsc, eventlist.SortDateDesc, eventlist.SortTitleAsc,
		eventlist.SortTitleDesc, eventlist.SortAccountAsc, eventlist.SortAccountDesc:
	default:
		return state, "", nil, errInvalidParam("sort")
	}

	var accountID *string
	if raw := strings.TrimSpace(q.Get("account_id")); raw != "" {
		if !uuidRegex.MatchString(raw) {
			return state, "", nil, errInvalidParam("account_id")
		}
		accountID = &raw
	}

	return state, sortBy, accountID, nil
}

type invalidParamError string

func (e invalidParamError) Error() string { return "invalid " + string(e) }

func errInvalidParam(name string) error { return invalidParamError(name) }

// toListEvents converts event and task rows to engine snapshots, attaching
// each event's task completion state.
func toListEvents(rows []store.Event, taskRows []store.Task) []eventlist.Event {
	completions := make(map[string][]eventlist.TaskCompletion)
	for _, task := range taskRows {
		if task.EntityID == nil {
			continue
		}
		completions[*task.EntityID] = append(completions[*task.EntityID], eventlist.TaskCompletion{
			TaskID:      task.ID,
			IsCompleted: task.Status.IsCompleted(),
			DueDate:     formatDate(task.DueDate),
		})
	}

	events := make([]eventlist.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, eventlist.Event{
			ID:              row.ID,
			Title:           row.Title,
			Location:        derefString(row.Location),
			AccountName:     derefString(row.AccountName),
			StartDate:       formatDate(row.StartDate),
			Status:          row.Status,
			AssignedTo:      derefString(row.AssignedTo),
			CreatedAt:       row.CreatedAt,
			TaskCompletions: completions[row.ID],
		})
	}
	return events
}
