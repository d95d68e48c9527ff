package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeHasher avoids argon2 cost in manager tests.
type fakeHasher struct {
	err error
}

func (f fakeHasher) Hash(password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "hashed:" + password, nil
}

var userRowColumns = []string{"id", "first_name", "last_name", "email", "phone", "password_hash", "created_at", "updated_at"}

func newTestManager(t *testing.T) (*Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewManager(NewDatastore(db), fakeHasher{}), mock
}

func TestManager_Create(t *testing.T) {
	mgr, mock := newTestManager(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "John", "Doe", "john@x.com", "0810", "hashed:pw123456", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u, err := mgr.Create(context.Background(), NewUser{
		FirstName: " John ",
		LastName:  "Doe",
		Email:     "  John@X.com",
		Password:  "pw123456",
		Phone:     "0810",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if u.ID == uuid.Nil {
		t.Error("expected ID to be generated")
	}
	if u.Email != "john@x.com" {
		t.Errorf("expected normalised email, got %q", u.Email)
	}
	if u.PasswordHash == "pw123456" {
		t.Error("password must not be stored in plaintext")
	}
	if u.Phone == nil || *u.Phone != "0810" {
		t.Errorf("expected phone '0810', got %v", u.Phone)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestManager_Create_WithoutPhone(t *testing.T) {
	mgr, mock := newTestManager(t)
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "Jane", "Doe", "jane@x.com", nil, "hashed:pw", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u, err := mgr.Create(context.Background(), NewUser{FirstName: "Jane", LastName: "Doe", Email: "jane@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Phone != nil {
		t.Errorf("expected nil phone, got %q", *u.Phone)
	}
}

func TestManager_Create_InvalidField(t *testing.T) {
	mgr := &Manager{hasher: fakeHasher{}}

	valid := NewUser{FirstName: "John", LastName: "Doe", Email: "john@x.com", Password: "pw"}

	tests := []struct {
		field  string
		mutate func(*NewUser)
	}{
		{"firstName", func(u *NewUser) { u.FirstName = "  " }},
		{"lastName", func(u *NewUser) { u.LastName = "" }},
		{"email", func(u *NewUser) { u.Email = "\t" }},
		{"password", func(u *NewUser) { u.Password = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := mgr.Create(context.Background(), in)
			if !errors.Is(err, ErrInvalidField) {
				t.Fatalf("expected ErrInvalidField, got %v", err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tt.field {
				t.Errorf("expected field %q, got %v", tt.field, err)
			}
		})
	}
}

func TestManager_Create_DuplicateEmail(t *testing.T) {
	mgr, mock := newTestManager(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := mgr.Create(context.Background(), NewUser{FirstName: "John", LastName: "Doe", Email: "john@x.com", Password: "pw"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestManager_Create_DatabaseError(t *testing.T) {
	mgr, mock := newTestManager(t)

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(sql.ErrConnDone)

	_, err := mgr.Create(context.Background(), NewUser{FirstName: "John", LastName: "Doe", Email: "john@x.com", Password: "pw"})
	if err == nil || errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected wrapped database error, got %v", err)
	}
	if !errors.Is(err, sql.ErrConnDone) {
		t.Errorf("expected error to wrap sql.ErrConnDone, got %v", err)
	}
}

func TestManager_Create_HashError(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mgr := NewManager(NewDatastore(db), fakeHasher{err: errors.New("no entropy")})

	_, err = mgr.Create(context.Background(), NewUser{FirstName: "John", LastName: "Doe", Email: "john@x.com", Password: "pw"})
	if err == nil || !strings.Contains(err.Error(), "hash password") {
		t.Errorf("expected hash error, got %v", err)
	}
}

func TestManager_GetByID(t *testing.T) {
	mgr, mock := newTestManager(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id, "John", "Doe", "john@x.com", nil, "hash", now, now))

	u, err := mgr.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != id || u.FirstName != "John" {
		t.Errorf("unexpected user: %+v", u)
	}
	if u.Phone != nil {
		t.Errorf("expected nil phone, got %v", *u.Phone)
	}
}

func TestManager_GetByID_NotFound(t *testing.T) {
	mgr, mock := newTestManager(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := mgr.GetByID(context.Background(), id)
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestManager_GetByEmail_Normalises(t *testing.T) {
	mgr, mock := newTestManager(t)
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("john@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(id, "John", "Doe", "john@x.com", "0810", "hash", now, now))

	u, err := mgr.GetByEmail(context.Background(), " JOHN@x.com ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Phone == nil || *u.Phone != "0810" {
		t.Errorf("expected phone '0810', got %v", u.Phone)
	}
}

func TestManager_GetByEmail_NotFound(t *testing.T) {
	mgr, mock := newTestManager(t)

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("ghost@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns))

	_, err := mgr.GetByEmail(context.Background(), "ghost@x.com")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if _, err := mgr.GetByEmail(context.Background(), "   "); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for blank email, got %v", err)
	}
}

func TestUser_Public_OmitsPasswordHash(t *testing.T) {
	phone := "0810"
	u := &User{ID: uuid.New(), FirstName: "John", LastName: "Doe", Email: "john@x.com", Phone: &phone, PasswordHash: "secret"}

	p := u.Public()
	if p.UserID != u.ID.String() || p.Email != "john@x.com" || p.Phone == nil {
		t.Errorf("unexpected public view: %+v", p)
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Mixed.Case@Example.COM "); got != "mixed.case@example.com" {
		t.Errorf("unexpected normalised email %q", got)
	}
}
