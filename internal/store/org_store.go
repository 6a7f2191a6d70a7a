package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Organization represents a tenant workspace.
type Organization struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrgStore provides access to organizations. Organizations sit above the
// RLS boundary, so no org context is required here.
type OrgStore struct {
	db *sql.DB
}

// NewOrgStore creates a new OrgStore.
func NewOrgStore(db *sql.DB) *OrgStore {
	return &OrgStore{db: db}
}

const orgSelectColumns = "id, name, slug, tier, created_at, updated_at"

// Create creates an organization.
func (s *OrgStore) Create(ctx context.Context, name, slug, tier string) (*Organization, error) {
	if tier == "" {
		tier = "free"
	}

	query := "INSERT INTO organizations (name, slug, tier) VALUES ($1, $2, $3) RETURNING " + orgSelectColumns
	org, err := scanOrganization(s.db.QueryRowContext(ctx, query, name, slug, tier))
	if err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return &org, nil
}

// GetByID retrieves an organization by ID.
func (s *OrgStore) GetByID(ctx context.Context, id string) (*Organization, error) {
	query := "SELECT " + orgSelectColumns + " FROM organizations WHERE id = $1"
	org, err := scanOrganization(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return &org, nil
}

// GetBySlug retrieves an organization by slug.
func (s *OrgStore) GetBySlug(ctx context.Context, slug string) (*Organization, error) {
	query := "SELECT " + orgSelectColumns + " FROM organizations WHERE slug = $1"
	org, err := scanOrganization(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization by slug: %w", err)
	}
	return &org, nil
}

func scanOrganization(scanner interface{ Scan(...any) error }) (Organization, error) {
	var org Organization
	err := scanner.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.Tier,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	return org, err
}
