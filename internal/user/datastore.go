package user

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// DBTX is the interface for database operations. Both *sql.DB and *sql.Tx
// satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Datastore handles database operations for users.
// It returns raw database errors; translation happens in the Manager.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new user datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const userColumns = `id, first_name, last_name, email, phone, password_hash, created_at, updated_at`

// Create inserts a user. ID and timestamps are filled in when empty.
func (ds *Datastore) Create(ctx context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO users (id, first_name, last_name, email, phone, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	return ds.db.QueryRowContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.PasswordHash, now, now,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
}

// GetByID retrieves a user by ID.
// Returns sql.ErrNoRows if not found.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(ds.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by normalised email.
// Returns sql.ErrNoRows if not found.
func (ds *Datastore) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(ds.db.QueryRowContext(ctx, query, email))
}

func scanUser(row *sql.Row) (*User, error) {
	u := &User{}
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone,
		&u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}
