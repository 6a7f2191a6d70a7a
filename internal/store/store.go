// Package store provides database access with row-level org isolation.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/boothworks/eventdesk/internal/middleware"
)

var (
	// ErrNoOrg is returned when an organization ID is required but not present.
	ErrNoOrg = errors.New("organization ID not found in context")
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrForbidden is returned when access to an entity is denied.
	ErrForbidden = errors.New("access denied")
)

// WithOrg sets the app.org_id session variable for RLS policies. This must
// be called before any query that touches RLS-protected tables.
func WithOrg(ctx context.Context, db *sql.DB) (*sql.Conn, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	_, err = conn.ExecContext(ctx, "SELECT set_config('app.org_id', $1, false)", orgID)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set organization: %w", err)
	}

	return conn, nil
}

// WithOrgTx starts a transaction with the org context set. The caller must
// commit or rollback.
func WithOrgTx(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	_, err = tx.ExecContext(ctx, "SELECT set_config('app.org_id', $1, true)", orgID)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to set organization: %w", err)
	}

	return tx, nil
}

// Querier is an interface for database query execution. *sql.DB, *sql.Conn,
// and *sql.Tx all implement it.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// nullableString converts a *string to a sql-compatible value.
func nullableString(value *string) interface{} {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return trimmed
}

// nullableFloat converts a *float64 to a sql-compatible value.
func nullableFloat(value *float64) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
