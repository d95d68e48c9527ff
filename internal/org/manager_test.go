package org

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewManager(NewDatastore(db)), mock
}

func TestManager_Create_Success(t *testing.T) {
	m, mock := newTestManager(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO organizations`).
		WithArgs(sqlmock.AnyArg(), "Test Org", nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	o, err := m.Create(context.Background(), "Test Org", "   ", uuid.NullUUID{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Name != "Test Org" {
		t.Errorf("expected name 'Test Org', got %q", o.Name)
	}
	if o.Description != nil {
		t.Errorf("expected blank description to be stored as NULL, got %q", *o.Description)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_Create_InvalidName(t *testing.T) {
	m := &Manager{ds: nil}

	tests := []struct {
		name    string
		orgName string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"tabs and spaces", " \t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Create(context.Background(), tt.orgName, "", uuid.NullUUID{})
			if !errors.Is(err, ErrInvalidName) {
				t.Errorf("expected ErrInvalidName, got %v", err)
			}
		})
	}
}

func TestManager_Create_TrimsWhitespace(t *testing.T) {
	m, mock := newTestManager(t)
	now := time.Now()
	creator := uuid.New()

	mock.ExpectQuery(`INSERT INTO organizations`).
		WithArgs(sqlmock.AnyArg(), "Trimmed Name", "Trimmed description", creator, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	o, err := m.Create(context.Background(), "  Trimmed Name  ", " Trimmed description ", uuid.NullUUID{UUID: creator, Valid: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Name != "Trimmed Name" {
		t.Errorf("expected name 'Trimmed Name', got %q", o.Name)
	}
}

func TestManager_GetByID_Success(t *testing.T) {
	m, mock := newTestManager(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(orgRowColumns).AddRow(id, "Test Org", "desc", nil, now, now))

	o, err := m.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if o.Name != "Test Org" {
		t.Errorf("expected name 'Test Org', got %q", o.Name)
	}
}

func TestManager_GetByID_NotFound(t *testing.T) {
	m, mock := newTestManager(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := m.GetByID(context.Background(), id)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_GetByID_DatabaseError(t *testing.T) {
	m, mock := newTestManager(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM organizations WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(sql.ErrConnDone)

	_, err := m.GetByID(context.Background(), id)
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("expected wrapped database error, got %v", err)
	}
}

func TestManager_List(t *testing.T) {
	m, mock := newTestManager(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM organizations`).
		WillReturnRows(sqlmock.NewRows(orgRowColumns).
			AddRow(uuid.New(), "Org 1", nil, nil, now, now).
			AddRow(uuid.New(), "Org 2", nil, nil, now, now))

	orgs, err := m.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orgs) != 2 {
		t.Errorf("expected 2 orgs, got %d", len(orgs))
	}
}

func TestManager_AddMember_Idempotent(t *testing.T) {
	m, mock := newTestManager(t)
	orgID, userID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectExec(`INSERT INTO organization_members`).
		WithArgs(orgID, userID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO organization_members`).
		WithArgs(orgID, userID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT org_id, user_id, created_at`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"org_id", "user_id", "created_at"}).AddRow(orgID, userID, now))

	ctx := context.Background()
	if err := m.AddMember(ctx, orgID, userID); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	if err := m.AddMember(ctx, orgID, userID); err != nil {
		t.Fatalf("second add should succeed, got %v", err)
	}

	members, err := m.ListMembers(ctx, orgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0] != userID {
		t.Errorf("expected exactly one member %s, got %v", userID, members)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_AddMember_ForeignKeyViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{"unknown user", "organization_members_user_id_fkey", ErrUserNotFound},
		{"unknown org", "organization_members_org_id_fkey", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, mock := newTestManager(t)

			mock.ExpectExec(`INSERT INTO organization_members`).
				WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: tt.constraint})

			err := m.AddMember(context.Background(), uuid.New(), uuid.New())
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestManager_IsMember(t *testing.T) {
	m, mock := newTestManager(t)
	orgID, userID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs(orgID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := m.IsMember(context.Background(), orgID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected membership")
	}
}
