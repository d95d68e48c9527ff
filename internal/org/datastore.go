package org

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

// Datastore handles persistence operations for organizations.
// It performs only database operations and returns raw errors.
// Business logic and error translation belong in the Manager.
type Datastore struct {
	db DBTX
}

// NewDatastore creates a new organization datastore.
func NewDatastore(db DBTX) *Datastore {
	return &Datastore{db: db}
}

const orgColumns = `id, name, description, created_by, created_at, updated_at`

// Create inserts a new organization into the database.
func (ds *Datastore) Create(ctx context.Context, o *Org) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	now := time.Now().UTC()

	query := `
		INSERT INTO organizations (id, name, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	return ds.db.QueryRowContext(ctx, query,
		o.ID, o.Name, o.Description, o.CreatedBy, now, now,
	).Scan(&o.CreatedAt, &o.UpdatedAt)
}

// GetByID retrieves an organization by its ID.
// Returns sql.ErrNoRows if not found.
func (ds *Datastore) GetByID(ctx context.Context, id uuid.UUID) (*Org, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id = $1`

	o := &Org{}
	err := ds.db.QueryRowContext(ctx, query, id).Scan(
		&o.ID, &o.Name, &o.Description, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// List retrieves all organizations in insertion order.
func (ds *Datastore) List(ctx context.Context) ([]*Org, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations ORDER BY created_at, id`
	return ds.queryOrgs(ctx, query)
}

// ListForUser retrieves the organizations a user belongs to, in insertion order.
func (ds *Datastore) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Org, error) {
	query := `
		SELECT o.id, o.name, o.description, o.created_by, o.created_at, o.updated_at
		FROM organizations o
		INNER JOIN organization_members m ON m.org_id = o.id
		WHERE m.user_id = $1
		ORDER BY o.created_at, o.id`
	return ds.queryOrgs(ctx, query, userID)
}

func (ds *Datastore) queryOrgs(ctx context.Context, query string, args ...any) ([]*Org, error) {
	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	orgs := []*Org{}
	for rows.Next() {
		o := &Org{}
		if err := rows.Scan(
			&o.ID, &o.Name, &o.Description, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orgs, nil
}

// AddMember inserts a membership row. An existing row is left untouched and
// reported as zero rows affected.
func (ds *Datastore) AddMember(ctx context.Context, orgID, userID uuid.UUID) (int64, error) {
	query := `
		INSERT INTO organization_members (org_id, user_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (org_id, user_id) DO NOTHING`

	result, err := ds.db.ExecContext(ctx, query, orgID, userID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// IsMember checks if a user is a member of an organization.
func (ds *Datastore) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM organization_members WHERE org_id = $1 AND user_id = $2)`
	var exists bool
	err := ds.db.QueryRowContext(ctx, query, orgID, userID).Scan(&exists)
	return exists, err
}

// ListMembers retrieves the membership rows of an organization.
func (ds *Datastore) ListMembers(ctx context.Context, orgID uuid.UUID) ([]*Member, error) {
	query := `
		SELECT org_id, user_id, created_at
		FROM organization_members
		WHERE org_id = $1
		ORDER BY created_at, user_id`

	rows, err := ds.db.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var members []*Member
	for rows.Next() {
		m := &Member{}
		if err := rows.Scan(&m.OrgID, &m.UserID, &m.CreatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
