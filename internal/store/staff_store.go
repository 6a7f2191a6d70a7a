package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boothworks/eventdesk/internal/geo"
	"github.com/boothworks/eventdesk/internal/middleware"
)

// Staff represents a staff member. Home coordinates are optional; members
// without them are excluded from distance matching.
type Staff struct {
	ID        string    `json:"id"`
	OrgID     string    `json:"org_id"`
	Name      string    `json:"name"`
	Email     *string   `json:"email,omitempty"`
	HomeLat   *float64  `json:"home_lat,omitempty"`
	HomeLng   *float64  `json:"home_lng,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeoStaff converts a staff row to the geo engine's shape. Home is nil
// unless both coordinates are present.
func (s Staff) GeoStaff() geo.Staff {
	member := geo.Staff{ID: s.ID, Name: s.Name}
	if s.HomeLat != nil && s.HomeLng != nil {
		member.Home = &geo.Coordinates{Lat: *s.HomeLat, Lng: *s.HomeLng}
	}
	return member
}

// StaffStore provides org-isolated access to staff.
type StaffStore struct {
	db *sql.DB
}

// NewStaffStore creates a new StaffStore.
func NewStaffStore(db *sql.DB) *StaffStore {
	return &StaffStore{db: db}
}

const staffSelectColumns = "id, org_id, name, email, home_lat, home_lng, created_at, updated_at"

// GetByID retrieves a staff member by ID within the current org.
func (s *StaffStore) GetByID(ctx context.Context, id string) (*Staff, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + staffSelectColumns + " FROM staff WHERE id = $1"
	member, err := scanStaff(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get staff member: %w", err)
	}

	if member.OrgID != orgID {
		return nil, ErrForbidden
	}

	return &member, nil
}

// List retrieves all staff in the current org, by name.
func (s *StaffStore) List(ctx context.Context) ([]Staff, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + staffSelectColumns + " FROM staff WHERE org_id = $1 ORDER BY name"
	rows, err := conn.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff: %w", err)
	}
	defer rows.Close()

	staff := make([]Staff, 0)
	for rows.Next() {
		member, err := scanStaff(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan staff member: %w", err)
		}
		staff = append(staff, member)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading staff: %w", err)
	}

	return staff, nil
}

// CreateStaffInput defines the input for creating a staff member.
type CreateStaffInput struct {
	Name    string
	Email   *string
	HomeLat *float64
	HomeLng *float64
}

// Create creates a new staff member in the current org.
func (s *StaffStore) Create(ctx context.Context, input CreateStaffInput) (*Staff, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `INSERT INTO staff (org_id, name, email, home_lat, home_lng)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING ` + staffSelectColumns

	member, err := scanStaff(conn.QueryRowContext(ctx, query,
		orgID,
		input.Name,
		nullableString(input.Email),
		nullableFloat(input.HomeLat),
		nullableFloat(input.HomeLng),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}

	return &member, nil
}

func scanStaff(scanner interface{ Scan(...any) error }) (Staff, error) {
	var member Staff
	var email sql.NullString
	var homeLat sql.NullFloat64
	var homeLng sql.NullFloat64

	err := scanner.Scan(
		&member.ID,
		&member.OrgID,
		&member.Name,
		&email,
		&homeLat,
		&homeLng,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return member, err
	}

	if email.Valid {
		member.Email = &email.String
	}
	if homeLat.Valid {
		member.HomeLat = &homeLat.Float64
	}
	if homeLng.Valid {
		member.HomeLng = &homeLng.Float64
	}

	return member, nil
}
