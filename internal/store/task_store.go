package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boothworks/eventdesk/internal/middleware"
	"github.com/boothworks/eventdesk/internal/readiness"
)

// Task represents a task row. Tasks attach to an entity (normally an event)
// via entity_type/entity_id.
type Task struct {
	ID         string               `json:"id"`
	OrgID      string               `json:"org_id"`
	EntityType string               `json:"entity_type"`
	EntityID   *string              `json:"entity_id,omitempty"`
	Title      string               `json:"title"`
	Status     readiness.TaskStatus `json:"status"`
	DueDate    *time.Time           `json:"due_date,omitempty"`
	AssignedTo *string              `json:"assigned_to,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// ReadinessTask converts a task row to the readiness engine's snapshot
// shape. Dates are rendered as date-only strings; the engine owns parsing.
func (t Task) ReadinessTask() readiness.Task {
	snapshot := readiness.Task{
		ID:         t.ID,
		EntityType: t.EntityType,
		Status:     t.Status,
	}
	if t.EntityID != nil {
		snapshot.EntityID = *t.EntityID
	}
	if t.DueDate != nil {
		snapshot.DueDate = t.DueDate.Format("2006-01-02")
	}
	return snapshot
}

// TaskStore provides org-isolated access to tasks.
type TaskStore struct {
	db *sql.DB
}

// NewTaskStore creates a new TaskStore.
func NewTaskStore(db *sql.DB) *TaskStore {
	return &TaskStore{db: db}
}

// TaskListFilter defines filtering options for listing tasks.
type TaskListFilter struct {
	Status     string
	EntityID   *string
	AssignedTo *string
}

const taskSelectColumns = "id, org_id, entity_type, entity_id, title, status, due_date, assigned_to, created_at, updated_at"

// GetByID retrieves a task by ID within the current org.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*Task, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + taskSelectColumns + " FROM tasks WHERE id = $1"
	task, err := scanStoreTask(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if task.OrgID != orgID {
		return nil, ErrForbidden
	}

	return &task, nil
}

// List retrieves all tasks in the current org matching the filter.
func (s *TaskStore) List(ctx context.Context, filter TaskListFilter) ([]Task, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query, args := buildTaskListQuery(orgID, filter)
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// ListByEntityIDs retrieves the tasks attached to any of the given entities.
// Used for bulk readiness computation.
func (s *TaskStore) ListByEntityIDs(ctx context.Context, entityIDs []string) ([]Task, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}
	if len(entityIDs) == 0 {
		return []Task{}, nil
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	placeholders := make([]string, 0, len(entityIDs))
	args := []interface{}{orgID}
	for _, id := range entityIDs {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := "SELECT " + taskSelectColumns + " FROM tasks WHERE org_id = $1 AND entity_id IN (" +
		strings.Join(placeholders, ", ") + ") ORDER BY created_at"

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks by entity: %w", err)
	}
	defer rows.Close()

	return collectTasks(rows)
}

// CreateTaskInput defines the input for creating a task.
type CreateTaskInput struct {
	EntityType string
	EntityID   *string
	Title      string
	Status     readiness.TaskStatus
	DueDate    *time.Time
	AssignedTo *string
}

// Create creates a new task in the current org.
func (s *TaskStore) Create(ctx context.Context, input CreateTaskInput) (*Task, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	entityType := input.EntityType
	if entityType == "" {
		entityType = "event"
	}

	query := `INSERT INTO tasks (
		org_id, entity_type, entity_id, title, status, due_date, assigned_to
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + taskSelectColumns

	task, err := scanStoreTask(conn.QueryRowContext(ctx, query,
		orgID,
		entityType,
		nullableString(input.EntityID),
		input.Title,
		string(input.Status),
		nullableTime(input.DueDate),
		nullableString(input.AssignedTo),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return &task, nil
}

// UpdateTaskInput defines the input for updating a task.
type UpdateTaskInput struct {
	EntityID   *string
	Title      string
	Status     readiness.TaskStatus
	DueDate    *time.Time
	AssignedTo *string
}

// Update updates a task in the current org.
func (s *TaskStore) Update(ctx context.Context, id string, input UpdateTaskInput) (*Task, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `UPDATE tasks SET
		entity_id = $1, title = $2, status = $3, due_date = $4, assigned_to = $5
	WHERE id = $6 AND org_id = $7
	RETURNING ` + taskSelectColumns

	task, err := scanStoreTask(conn.QueryRowContext(ctx, query,
		nullableString(input.EntityID),
		input.Title,
		string(input.Status),
		nullableTime(input.DueDate),
		nullableString(input.AssignedTo),
		id,
		orgID, // Defense in depth: explicit org check
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return &task, nil
}

// UpdateStatus updates only the status of a task.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status readiness.TaskStatus) (*Task, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "UPDATE tasks SET status = $1 WHERE id = $2 AND org_id = $3 RETURNING " + taskSelectColumns
	task, err := scanStoreTask(conn.QueryRowContext(ctx, query, string(status), id, orgID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	return &task, nil
}

// Delete deletes a task from the current org.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return err
	}
	defer conn.Close()

	result, err := conn.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND org_id = $2", id, orgID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func buildTaskListQuery(orgID string, filter TaskListFilter) (string, []interface{}) {
	conditions := []string{"org_id = $1"}
	args := []interface{}{orgID}

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.EntityID != nil {
		args = append(args, *filter.EntityID)
		conditions = append(conditions, fmt.Sprintf("entity_id = $%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", len(args)))
	}

	query := "SELECT " + taskSelectColumns + " FROM tasks WHERE " +
		strings.Join(conditions, " AND ") + " ORDER BY created_at DESC"

	return query, args
}

func collectTasks(rows *sql.Rows) ([]Task, error) {
	tasks := make([]Task, 0)
	for rows.Next() {
		task, err := scanStoreTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading tasks: %w", err)
	}

	return tasks, nil
}

func scanStoreTask(scanner interface{ Scan(...any) error }) (Task, error) {
	var task Task
	var entityID sql.NullString
	var status string
	var dueDate sql.NullTime
	var assignedTo sql.NullString

	err := scanner.Scan(
		&task.ID,
		&task.OrgID,
		&task.EntityType,
		&entityID,
		&task.Title,
		&status,
		&dueDate,
		&assignedTo,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return task, err
	}

	task.Status = readiness.TaskStatus(status)
	if entityID.Valid {
		task.EntityID = &entityID.String
	}
	if dueDate.Valid {
		task.DueDate = &dueDate.Time
	}
	if assignedTo.Valid {
		task.AssignedTo = &assignedTo.String
	}

	return task, nil
}
