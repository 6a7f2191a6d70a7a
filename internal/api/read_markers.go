package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/boothworks/eventdesk/internal/store"
)

// MarkerHandler manages per-org read markers, the "seen up to here" state
// clients keep per scope key.
type MarkerHandler struct {
	Markers *store.ReadMarkerStore
}

type SetMarkerRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type MarkersResponse struct {
	Markers []store.ReadMarker `json:"markers"`
}

// ListMarkers handles GET /api/read-markers with an optional prefix filter.
func (h *MarkerHandler) ListMarkers(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("prefix"))

	markers, err := h.Markers.ListByPrefix(r.Context(), prefix)
	if err != nil {
		sendStoreError(w, err, "failed to list read markers")
		return
	}

	sendJSON(w, http.StatusOK, MarkersResponse{Markers: markers})
}

// GetMarker handles GET /api/read-markers/value?key=...
func (h *MarkerHandler) GetMarker(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter: key"})
		return
	}

	marker, err := h.Markers.Get(r.Context(), key)
	if err != nil {
		sendStoreError(w, err, "failed to load read marker")
		return
	}

	sendJSON(w, http.StatusOK, marker)
}

// SetMarker handles PUT /api/read-markers
func (h *MarkerHandler) SetMarker(w http.ResponseWriter, r *http.Request) {
	var req SetMarkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	key := strings.TrimSpace(req.Key)
	if key == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing key"})
		return
	}

	marker, err := h.Markers.Set(r.Context(), key, req.Value)
	if err != nil {
		sendStoreError(w, err, "failed to set read marker")
		return
	}

	sendJSON(w, http.StatusOK, marker)
}

// ClearMarker handles DELETE /api/read-markers?key=...
func (h *MarkerHandler) ClearMarker(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(r.URL.Query().Get("key"))
	if key == "" {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter: key"})
		return
	}

	if err := h.Markers.Clear(r.Context(), key); err != nil {
		sendStoreError(w, err, "failed to clear read marker")
		return
	}

	sendJSON(w, http.StatusOK, map[string]string{"status": "cleared", "key": key})
}
