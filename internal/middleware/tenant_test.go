package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrgID = "a1b2c3d4-e5f6-7890-abcd-ef1234567890"

func makeJWT(t *testing.T, claims map[string]string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	payload, err := json.Marshal(claims)
	require.NoError(t, err)
	body := base64.RawURLEncoding.EncodeToString(payload)
	return header + "." + body + ".sig"
}

func orgEchoHandler() (http.Handler, *string) {
	var captured string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = OrgFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return handler, &captured
}

func TestRequireOrgFromJWTClaims(t *testing.T) {
	for _, claim := range []string{"org_id", "organization_id", "tenant_id"} {
		handler, captured := orgEchoHandler()
		req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
		req.Header.Set("Authorization", "Bearer "+makeJWT(t, map[string]string{claim: testOrgID}))
		rec := httptest.NewRecorder()

		RequireOrg(handler).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code, "claim %s", claim)
		assert.Equal(t, testOrgID, *captured, "claim %s", claim)
	}
}

func TestRequireOrgFromHeader(t *testing.T) {
	handler, captured := orgEchoHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("X-Org-ID", testOrgID)
	rec := httptest.NewRecorder()

	RequireOrg(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOrgID, *captured)
}

func TestRequireOrgFromQueryParam(t *testing.T) {
	handler, captured := orgEchoHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/events?org_id="+testOrgID, nil)
	rec := httptest.NewRecorder()

	RequireOrg(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOrgID, *captured)
}

func TestRequireOrgRejectsMissingOrInvalid(t *testing.T) {
	cases := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"no credentials", func(r *http.Request) {}},
		{"malformed header uuid", func(r *http.Request) { r.Header.Set("X-Org-ID", "not-a-uuid") }},
		{"malformed bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }},
		{"jwt without org claims", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+makeJWT(t, map[string]string{"sub": "user-1"}))
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler, _ := orgEchoHandler()
			req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()

			RequireOrg(handler).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, `{"error":"missing or invalid organization"}`, rec.Body.String())
		})
	}
}

func TestOptionalOrgPassesThroughWithoutOrg(t *testing.T) {
	handler, captured := orgEchoHandler()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	OptionalOrg(handler).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, *captured)
}

func TestWithOrgRoundTrip(t *testing.T) {
	ctx := WithOrg(context.Background(), testOrgID)
	assert.Equal(t, testOrgID, OrgFromContext(ctx))
	assert.Empty(t, OrgFromContext(context.Background()))
}
