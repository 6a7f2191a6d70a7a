package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boothworks/eventdesk/internal/config"
)

func TestHealthEndpoint(t *testing.T) {
	router := NewRouter(nil, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestRootEndpoint(t *testing.T) {
	router := NewRouter(nil, config.Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "EventDesk", resp["name"])
	assert.Equal(t, "/health", resp["health"])
}

func TestAPIRequiresOrganization(t *testing.T) {
	router := NewRouter(nil, config.Config{})

	paths := []string{"/api/events", "/api/tasks", "/api/staff", "/api/accounts", "/api/read-markers"}
	for _, path := range paths {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "expected 401 for %s without org", path)
	}
}

func TestAPIAcceptsOrgHeader(t *testing.T) {
	router := NewRouter(nil, config.Config{})

	// Not configured, but the request must clear the org middleware and
	// reach the handler.
	req := httptest.NewRequest(http.MethodGet, "/api/distance/driving", nil)
	req.Header.Set("X-Org-ID", "550e8400-e29b-41d4-a716-446655440000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
