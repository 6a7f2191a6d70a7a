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

// Event represents an event row, joined with its account name for display
// and filtering.
type Event struct {
	ID          string     `json:"id"`
	OrgID       string     `json:"org_id"`
	AccountID   *string    `json:"account_id,omitempty"`
	AccountName *string    `json:"account_name,omitempty"`
	Title       string     `json:"title"`
	Location    *string    `json:"location,omitempty"`
	VenueLat    *float64   `json:"venue_lat,omitempty"`
	VenueLng    *float64   `json:"venue_lng,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	Status      string     `json:"status"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// EventStore provides org-isolated access to events.
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates a new EventStore.
func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

// EventFilter defines coarse SQL-level filtering for listing events. The
// fine-grained list filtering (search, date buckets, task completion) runs
// in memory via the eventlist engine.
type EventFilter struct {
	Status    string
	AccountID *string
}

const eventSelectColumns = `e.id, e.org_id, e.account_id, a.name, e.title, e.location,
	e.venue_lat, e.venue_lng, e.start_date, e.status, e.assigned_to, e.created_at, e.updated_at`

const eventFromClause = " FROM events e LEFT JOIN accounts a ON a.id = e.account_id "

// GetByID retrieves an event by ID within the current org.
func (s *EventStore) GetByID(ctx context.Context, id string) (*Event, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + eventSelectColumns + eventFromClause + "WHERE e.id = $1"
	event, err := scanEvent(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	// Defense in depth: RLS already scopes the row, check anyway.
	if event.OrgID != orgID {
		return nil, ErrForbidden
	}

	return &event, nil
}

// List retrieves all events in the current org matching the filter.
func (s *EventStore) List(ctx context.Context, filter EventFilter) ([]Event, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query, args := buildEventListQuery(orgID, filter)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]Event, 0)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading events: %w", err)
	}

	return events, nil
}

// CreateEventInput defines the input for creating an event.
type CreateEventInput struct {
	AccountID  *string
	Title      string
	Location   *string
	VenueLat   *float64
	VenueLng   *float64
	StartDate  *time.Time
	Status     string
	AssignedTo *string
}

// Create creates a new event in the current org.
func (s *EventStore) Create(ctx context.Context, input CreateEventInput) (*Event, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `INSERT INTO events (
		org_id, account_id, title, location, venue_lat, venue_lng, start_date, status, assigned_to
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id`

	var id string
	err = conn.QueryRowContext(ctx, query,
		orgID,
		nullableString(input.AccountID),
		input.Title,
		nullableString(input.Location),
		nullableFloat(input.VenueLat),
		nullableFloat(input.VenueLng),
		nullableTime(input.StartDate),
		input.Status,
		nullableString(input.AssignedTo),
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	// Re-read through the account join so the response carries account_name.
	query = "SELECT " + eventSelectColumns + eventFromClause + "WHERE e.id = $1"
	event, err := scanEvent(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to read created event: %w", err)
	}

	return &event, nil
}

// UpdateEventInput defines the input for updating an event.
type UpdateEventInput struct {
	AccountID  *string
	Title      string
	Location   *string
	VenueLat   *float64
	VenueLng   *float64
	StartDate  *time.Time
	Status     string
	AssignedTo *string
}

// Update updates an event in the current org.
func (s *EventStore) Update(ctx context.Context, id string, input UpdateEventInput) (*Event, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `UPDATE events SET
		account_id = $1, title = $2, location = $3, venue_lat = $4,
		venue_lng = $5, start_date = $6, status = $7, assigned_to = $8
	WHERE id = $9 AND org_id = $10
	RETURNING id`

	var updated string
	err = conn.QueryRowContext(ctx, query,
		nullableString(input.AccountID),
		input.Title,
		nullableString(input.Location),
		nullableFloat(input.VenueLat),
		nullableFloat(input.VenueLng),
		nullableTime(input.StartDate),
		input.Status,
		nullableString(input.AssignedTo),
		id,
		orgID, // Defense in depth: explicit org check
	).Scan(&updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update event: %w", err)
	}

	query = "SELECT " + eventSelectColumns + eventFromClause + "WHERE e.id = $1"
	event, err := scanEvent(conn.QueryRowContext(ctx, query, updated))
	if err != nil {
		return nil, fmt.Errorf("failed to read updated event: %w", err)
	}

	return &event, nil
}

// Delete deletes an event and its tasks from the current org.
func (s *EventStore) Delete(ctx context.Context, id string) error {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return ErrNoOrg
	}

	tx, err := WithOrgTx(ctx, s.db)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM tasks WHERE entity_type = 'event' AND entity_id = $1 AND org_id = $2", id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete event tasks: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM events WHERE id = $1 AND org_id = $2", id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

func buildEventListQuery(orgID string, filter EventFilter) (string, []interface{}) {
	conditions := []string{"e.org_id = $1"}
	args := []interface{}{orgID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)))
	}
	if filter.AccountID != nil {
		args = append(args, *filter.AccountID)
		conditions = append(conditions, fmt.Sprintf("e.account_id = $%d", len(args)))
	}

	query := "SELECT " + eventSelectColumns + eventFromClause + "WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY e.created_at DESC"

	return query, args
}

func scanEvent(scanner interface{ Scan(...any) error }) (Event, error) {
	var event Event
	var accountID sql.NullString
	var accountName sql.NullString
	var location sql.NullString
	var venueLat sql.NullFloat64
	var venueLng sql.NullFloat64
	var startDate sql.NullTime
	var assignedTo sql.NullString

	err := scanner.Scan(
		&event.ID,
		&event.OrgID,
		&accountID,
		&accountName,
		&event.Title,
		&location,
		&venueLat,
		&venueLng,
		&startDate,
		&event.Status,
		&assignedTo,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return event, err
	}

	if accountID.Valid {
		event.AccountID = &accountID.String
	}
	if accountName.Valid {
		event.AccountName = &accountName.String
	}
	if location.Valid {
		event.Location = &location.String
	}
	if venueLat.Valid {
		event.VenueLat = &venueLat.Float64
	}
	if venueLng.Valid {
		event.VenueLng = &venueLng.Float64
	}
	if startDate.Valid {
		event.StartDate = &startDate.Time
	}
	if assignedTo.Valid {
		event.AssignedTo = &assignedTo.String
	}

	return event, nil
}

func nullableTime(value *time.Time) interface{} {
	if value == nil || value.IsZero() {
		return nil
	}
	return *value
}
