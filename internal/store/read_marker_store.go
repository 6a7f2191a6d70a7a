package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boothworks/eventdesk/internal/middleware"
)

// ReadMarker is one org-scoped read-status entry, keyed by an arbitrary
// scope key (for example "notifications:thread:<id>"). This is the
// explicit, injected replacement for client-local read-state storage.
type ReadMarker struct {
	OrgID     string    `json:"org_id"`
	ScopeKey  string    `json:"scope_key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReadMarkerStore provides org-isolated get/set/clear over read markers.
type ReadMarkerStore struct {
	db *sql.DB
}

// NewReadMarkerStore creates a new ReadMarkerStore.
func NewReadMarkerStore(db *sql.DB) *ReadMarkerStore {
	return &ReadMarkerStore{db: db}
}

// Get retrieves the marker for a scope key. Missing keys are ErrNotFound.
func (s *ReadMarkerStore) Get(ctx context.Context, scopeKey string) (*ReadMarker, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var marker ReadMarker
	err = conn.QueryRowContext(ctx,
		"SELECT org_id, scope_key, value, updated_at FROM read_markers WHERE org_id = $1 AND scope_key = $2",
		orgID, scopeKey,
	).Scan(&marker.OrgID, &marker.ScopeKey, &marker.Value, &marker.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get read marker: %w", err)
	}

	return &marker, nil
}

// Set upserts the marker for a scope key.
func (s *ReadMarkerStore) Set(ctx context.Context, scopeKey, value string) (*ReadMarker, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var marker ReadMarker
	err = conn.QueryRowContext(ctx, `
		INSERT INTO read_markers (org_id, scope_key, value, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (org_id, scope_key) DO UPDATE SET value = $3, updated_at = NOW()
		RETURNING org_id, scope_key, value, updated_at`,
		orgID, scopeKey, value,
	).Scan(&marker.OrgID, &marker.ScopeKey, &marker.Value, &marker.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to set read marker: %w", err)
	}

	return &marker, nil
}

// Clear removes the marker for a scope key. Clearing a missing key is not
// an error.
func (s *ReadMarkerStore) Clear(ctx context.Context, scopeKey string) error {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx,
		"DELETE FROM read_markers WHERE org_id = $1 AND scope_key = $2", orgID, scopeKey)
	if err != nil {
		return fmt.Errorf("failed to clear read marker: %w", err)
	}

	return nil
}

// ListByPrefix retrieves all markers whose scope key starts with prefix.
func (s *ReadMarkerStore) ListByPrefix(ctx context.Context, prefix string) ([]ReadMarker, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	pattern := escapeLikePattern(prefix) + "%"
	rows, err := conn.QueryContext(ctx,
		"SELECT org_id, scope_key, value, updated_at FROM read_markers WHERE org_id = $1 AND scope_key LIKE $2 ORDER BY scope_key",
		orgID, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list read markers: %w", err)
	}
	defer rows.Close()

	markers := make([]ReadMarker, 0)
	for rows.Next() {
		var marker ReadMarker
		if err := rows.Scan(&marker.OrgID, &marker.ScopeKey, &marker.Value, &marker.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan read marker: %w", err)
		}
		markers = append(markers, marker)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading read markers: %w", err)
	}

	return markers, nil
}

func escapeLikePattern(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}
