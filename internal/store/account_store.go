package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/boothworks/eventdesk/internal/middleware"
)

// Account represents a client account.
type Account struct {
	ID           string    `json:"id"`
	OrgID        string    `json:"org_id"`
	Name         string    `json:"name"`
	ContactEmail *string   `json:"contact_email,omitempty"`
	ContactPhone *string   `json:"contact_phone,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountStore provides org-isolated access to accounts.
type AccountStore struct {
	db *sql.DB
}

// NewAccountStore creates a new AccountStore.
func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

const accountSelectColumns = "id, org_id, name, contact_email, contact_phone, created_at, updated_at"

// GetByID retrieves an account by ID within the current org.
func (s *AccountStore) GetByID(ctx context.Context, id string) (*Account, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + accountSelectColumns + " FROM accounts WHERE id = $1"
	account, err := scanAccount(conn.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if account.OrgID != orgID {
		return nil, ErrForbidden
	}

	return &account, nil
}

// List retrieves all accounts in the current org, by name.
func (s *AccountStore) List(ctx context.Context) ([]Account, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := "SELECT " + accountSelectColumns + " FROM accounts WHERE org_id = $1 ORDER BY name"
	rows, err := conn.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]Account, 0)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading accounts: %w", err)
	}

	return accounts, nil
}

// CreateAccountInput defines the input for creating an account.
type CreateAccountInput struct {
	Name         string
	ContactEmail *string
	ContactPhone *string
}

// Create creates a new account in the current org.
func (s *AccountStore) Create(ctx context.Context, input CreateAccountInput) (*Account, error) {
	orgID := middleware.OrgFromContext(ctx)
	if orgID == "" {
		return nil, ErrNoOrg
	}

	conn, err := WithOrg(ctx, s.db)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	query := `INSERT INTO accounts (org_id, name, contact_email, contact_phone)
	VALUES ($1, $2, $3, $4)
	RETURNING ` + accountSelectColumns

	account, err := scanAccount(conn.QueryRowContext(ctx, query,
		orgID,
		input.Name,
		nullableString(input.ContactEmail),
		nullableString(input.ContactPhone),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &account, nil
}

func scanAccount(scanner interface{ Scan(...any) error }) (Account, error) {
	var account Account
	var contactEmail sql.NullString
	var contactPhone sql.NullString

	err := scanner.Scan(
		&account.ID,
		&account.OrgID,
		&account.Name,
		&contactEmail,
		&contactPhone,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return account, err
	}

	if contactEmail.Valid {
		account.ContactEmail = &contactEmail.String
	}
	if contactPhone.Valid {
		account.ContactPhone = &contactPhone.String
	}

	return account, nil
}
