package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/boothworks/eventdesk/internal/store"
)

var uuidRegex = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)

type errorResponse struct {
	Error string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// sendStoreError maps store sentinel errors to HTTP statuses. Anything
// unexpected comes back as a generic 500 with the supplied message.
func sendStoreError(w http.ResponseWriter, err error, message string) {
	switch {
	case errors.Is(err, store.ErrNoOrg):
		sendJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing or invalid organization"})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrForbidden):
		sendJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	default:
		sendJSON(w, http.StatusInternalServerError, errorResponse{Error: message})
	}
}

func validateOptionalUUID(value *string, field string) error {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return fmt.Errorf("%s cannot be empty", field)
	}
	if !uuidRegex.MatchString(trimmed) {
		return fmt.Errorf("invalid %s", field)
	}
	*value = trimmed
	return nil
}

// parseDateField parses a date-only or RFC3339 timestamp string into a local
// time. Empty input yields nil.
func parseDateField(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if parsed, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", value)
}

func formatDate(value *time.Time) string {
	if value == nil {
		return ""
	}
	return value.Format("2006-01-02")
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func parseOptionalStringField(raw map[string]json.RawMessage, key string) (*string, bool, error) {
	value, ok := raw[key]
	if !ok {
		return nil, false, nil
	}
	if len(value) == 0 || string(value) == "null" {
		return nil, true, nil
	}
	var parsed string
	if err := json.Unmarshal(value, &parsed); err != nil {
		return nil, true, err
	}
	return &parsed, true, nil
}

func parseOptionalFloatField(raw map[string]json.RawMessage, key string) (*float64, bool, error) {
	value, ok := raw[key]
	if !ok {
		return nil, false, nil
	}
	if len(value) == 0 || string(value) == "null" {
		return nil, true, nil
	}
	var parsed float64
	if err := json.Unmarshal(value, &parsed); err != nil {
		return nil, true, err
	}
	return &parsed, true, nil
}
