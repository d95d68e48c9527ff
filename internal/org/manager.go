package org

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Domain errors returned by the Manager.
var (
	ErrNotFound     = errors.New("organization not found")
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidName  = errors.New("organization name is required")
)

const (
	pgForeignKeyViolation = "23503"
	memberUserFKey        = "organization_members_user_id_fkey"
	memberOrgFKey         = "organization_members_org_id_fkey"
)

// Manager handles business logic for organizations.
// It coordinates operations and translates datastore errors to domain errors.
type Manager struct {
	ds *Datastore
}

// NewManager creates a new organization manager.
func NewManager(ds *Datastore) *Manager {
	return &Manager{ds: ds}
}

// WithDB returns a manager bound to db, typically a transaction.
func (m *Manager) WithDB(db DBTX) *Manager {
	return &Manager{ds: NewDatastore(db)}
}

// Create creates a new organization. A blank description is stored as NULL.
func (m *Manager) Create(ctx context.Context, name, description string, createdBy uuid.NullUUID) (*Org, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	o := &Org{
		Name:      name,
		CreatedBy: createdBy,
	}
	if desc := strings.TrimSpace(description); desc != "" {
		o.Description = &desc
	}

	if err := m.ds.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}

	return o, nil
}

// GetByID retrieves an organization by ID.
func (m *Manager) GetByID(ctx context.Context, id uuid.UUID) (*Org, error) {
	o, err := m.ds.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return o, nil
}

// List retrieves every organization in insertion order.
func (m *Manager) List(ctx context.Context) ([]*Org, error) {
	orgs, err := m.ds.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	return orgs, nil
}

// ListForUser retrieves the organizations a user belongs to.
func (m *Manager) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Org, error) {
	orgs, err := m.ds.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations for user: %w", err)
	}
	return orgs, nil
}

// AddMember adds a user to an organization. Adding an existing member is a
// no-op. Unknown organizations or users are reported as ErrNotFound and
// ErrUserNotFound respectively.
func (m *Manager) AddMember(ctx context.Context, orgID, userID uuid.UUID) error {
	if _, err := m.ds.AddMember(ctx, orgID, userID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			switch pgErr.ConstraintName {
			case memberUserFKey:
				return ErrUserNotFound
			case memberOrgFKey:
				return ErrNotFound
			}
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// IsMember checks if a user is a member of an organization.
func (m *Manager) IsMember(ctx context.Context, orgID, userID uuid.UUID) (bool, error) {
	ok, err := m.ds.IsMember(ctx, orgID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

// ListMembers returns the IDs of an organization's members.
func (m *Manager) ListMembers(ctx context.Context, orgID uuid.UUID) ([]uuid.UUID, error) {
	members, err := m.ds.ListMembers(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	ids := make([]uuid.UUID, len(members))
	for i, member := range members {
		ids[i] = member.UserID
	}
	return ids, nil
}
