package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain errors
var (
	ErrNotFound       = errors.New("user not found")
	ErrInvalidField   = errors.New("invalid user field")
	ErrDuplicateEmail = errors.New("email already exists")
)

const pgUniqueViolation = "23505"

// FieldError names the field that failed validation. It matches
// ErrInvalidField under errors.Is.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// PasswordHasher hashes plaintext passwords for storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// Manager handles business logic for users.
type Manager struct {
	ds     *Datastore
	hasher PasswordHasher
}

// NewManager creates a new user manager.
func NewManager(ds *Datastore, hasher PasswordHasher) *Manager {
	return &Manager{ds: ds, hasher: hasher}
}

// WithDB returns a manager bound to db, typically a transaction.
func (m *Manager) WithDB(db DBTX) *Manager {
	return &Manager{ds: NewDatastore(db), hasher: m.hasher}
}

// Create validates and stores a new user with a hashed password.
func (m *Manager) Create(ctx context.Context, in NewUser) (*User, error) {
	u := &User{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     NormalizeEmail(in.Email),
	}

	switch {
	case u.FirstName == "":
		return nil, &FieldError{Field: "firstName", Message: "first name is required"}
	case u.LastName == "":
		return nil, &FieldError{Field: "lastName", Message: "last name is required"}
	case u.Email == "":
		return nil, &FieldError{Field: "email", Message: "email is required"}
	case in.Password == "":
		return nil, &FieldError{Field: "password", Message: "password is required"}
	}

	if phone := strings.TrimSpace(in.Phone); phone != "" {
		u.Phone = &phone
	}

	hash, err := m.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u.PasswordHash = hash

	if err := m.ds.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// GetByID retrieves a user by ID.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email, ignoring case and surrounding space.
func (m *Manager) GetByEmail(ctx context.Context, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrNotFound
	}

	u, err := m.ds.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
