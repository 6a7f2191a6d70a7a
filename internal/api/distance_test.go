package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothworks/eventdesk/internal/geo"
)

func TestDrivingDistanceNotConfigured(t *testing.T) {
	handler := &DistanceHandler{}

	req := httptest.NewRequest(http.MethodGet, "/api/distance/driving?origin=a&destination=b", nil)
	rec := httptest.NewRecorder()
	handler.DrivingDistance(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDrivingDistanceMissingParams(t *testing.T) {
	handler := &DistanceHandler{Maps: geo.NewClient("http://example.invalid", "key", time.Second)}

	req := httptest.NewRequest(http.MethodGet, "/api/distance/driving?origin=a", nil)
	rec := httptest.NewRecorder()
	handler.DrivingDistance(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDrivingDistanceOK(t *testing.T) {
	matrix := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"rows": [{"elements": [{
				"status": "OK",
				"distance": {"value": 160934},
				"duration": {"value": 5400}
			}]}]
		}`))
	}))
	defer matrix.Close()

	handler := &DistanceHandler{Maps: geo.NewClient(matrix.URL, "key", time.Second)}

	req := httptest.NewRequest(http.MethodGet, "/api/distance/driving?origin=Portland,OR&destination=Seattle,WA", nil)
	rec := httptest.NewRecorder()
	handler.DrivingDistance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DrivingDistanceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, geo.StatusOK, resp.Result.Status)
	assert.InDelta(t, 100.0, resp.Result.Miles, 0.01)
	assert.InDelta(t, 90.0, resp.Result.Minutes, 0.01)
}

func TestDrivingDistanceUpstreamFailureIsStill200(t *testing.T) {
	matrix := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer matrix.Close()

	handler := &DistanceHandler{Maps: geo.NewClient(matrix.URL, "key", time.Second)}

	req := httptest.NewRequest(http.MethodGet, "/api/distance/driving?origin=a&destination=b", nil)
	rec := httptest.NewRecorder()
	handler.DrivingDistance(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp DrivingDistanceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, geo.StatusError, resp.Result.Status)
}
