package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/boothworks/eventdesk/internal/geo"
	"github.com/boothworks/eventdesk/internal/store"
)

const defaultNearbyRadius = 50.0

// StaffHandler manages staff endpoints and venue proximity matching.
type StaffHandler struct {
	Staff  *store.StaffStore
	Events *store.EventStore
	Unit   geo.Unit
}

type CreateStaffRequest struct {
	Name    string   `json:"name"`
	Email   *string  `json:"email,omitempty"`
	HomeLat *float64 `json:"home_lat,omitempty"`
	HomeLng *float64 `json:"home_lng,omitempty"`
}

type StaffListResponse struct {
	Staff []store.Staff `json:"staff"`
}

type NearbyStaffResponse struct {
	EventID string              `json:"event_id"`
	Radius  float64             `json:"radius"`
	Unit    geo.Unit            `json:"unit"`
	Staff   []geo.StaffDistance `json:"staff"`
}

// ListStaff handles GET /api/staff
func (h *StaffHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	staff, err := h.Staff.List(r.Context())
	if err != nil {
		sendStoreError(w, err, "failed to list staff")
		return
	}

	sendJSON(w, http.StatusOK, StaffListResponse{Staff: staff})
}

// CreateStaff handles POST /api/staff
func (h *StaffHandler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	var req CreateStaffRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing name"})
		return
	}
	if (req.HomeLat == nil) != (req.HomeLng == nil) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "home_lat and home_lng must be set together"})
		return
	}

	staff, err := h.Staff.Create(r.Context(), store.CreateStaffInput{
		Name:    name,
		Email:   req.Email,
		HomeLat: req.HomeLat,
		HomeLng: req.HomeLng,
	})
	if err != nil {
		sendStoreError(w, err, "failed to create staff")
		return
	}

	sendJSON(w, http.StatusOK, staff)
}

// NearbyStaff handles GET /api/events/:id/nearby-staff. Staff without home
// coordinates are skipped; results come back nearest first.
func (h *StaffHandler) NearbyStaff(w http.ResponseWriter, r *http.Request) {
	eventID, ok := requireEventID(w, r)
	if !ok {
		return
	}

	radius := defaultNearbyRadius
	if raw := strings.TrimSpace(r.URL.Query().Get("radius")); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid radius"})
			return
		}
		radius = parsed
	}

	unit := h.Unit
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("unit"))) {
	case "":
	case "miles", "mi":
		unit = geo.UnitMiles
	case "km", "kilometers":
		unit = geo.UnitKilometers
	default:
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid unit"})
		return
	}
	if unit == "" {
		unit = geo.UnitMiles
	}

	event, err := h.Events.GetByID(r.Context(), eventID)
	if err != nil {
		sendStoreError(w, err, "failed to load event")
		return
	}
	if event.VenueLat == nil || event.VenueLng == nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "event has no venue coordinates"})
		return
	}

	rows, err := h.Staff.List(r.Context())
	if err != nil {
		sendStoreError(w, err, "failed to list staff")
		return
	}

	members := make([]geo.Staff, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.GeoStaff())
	}

	location := geo.Location{
		Name:   derefString(event.Location),
		Coords: &geo.Coordinates{Lat: *event.VenueLat, Lng: *event.VenueLng},
	}
	matches, err := geo.StaffWithinRadius(members, location, radius, unit)
	if err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	sendJSON(w, http.StatusOK, NearbyStaffResponse{
		EventID: eventID,
		Radius:  radius,
		Unit:    unit,
		Staff:   matches,
	})
}
