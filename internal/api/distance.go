package api

import (
	"net/http"
	"strings"

	"github.com/boothworks/eventdesk/internal/geo"
)

// DistanceHandler exposes driving-distance lookups. Maps is nil when the
// matrix client is not configured.
type DistanceHandler struct {
	Maps *geo.Client
}

type DrivingDistanceResponse struct {
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Result      geo.DrivingResult `json:"result"`
}

// DrivingDistance handles GET /api/distance/driving. Lookup failures come
// back with a 200 and a non-ok result status; only a missing configuration
// or missing parameters are request errors.
func (h *DistanceHandler) DrivingDistance(w http.ResponseWriter, r *http.Request) {
	if h.Maps == nil {
		sendJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "driving distance is not configured"})
		return
	}

	origin := strings.TrimSpace(r.URL.Query().Get("origin"))
	destination := strings.TrimSpace(r.URL.Query().Get("destination"))
	if origin == "" || destination == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameters: origin, destination"})
		return
	}

	result := h.Maps.DrivingDistance(r.Context(), origin, destination)
	sendJSON(w, http.StatusOK, DrivingDistanceResponse{
		Origin:      origin,
		Destination: destination,
		Result:      result,
	})
}
