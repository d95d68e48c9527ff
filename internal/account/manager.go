// Package account implements the registration, login and organisation
// membership workflows on top of the user and org stores.
package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"orgdesk/internal/org"
	"orgdesk/internal/user"
)

// MembershipPolicy controls who may add users to an organisation.
type MembershipPolicy string

const (
	// PolicyMember requires the caller to already belong to the organisation.
	PolicyMember MembershipPolicy = "member"
	// PolicyOpen lets any authenticated caller add members.
	PolicyOpen MembershipPolicy = "open"
)

// TxRunner runs fn in a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// TokenIssuer mints access tokens.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (string, error)
}

// PasswordVerifier checks plaintext passwords against stored hashes.
type PasswordVerifier interface {
	Verify(password, encoded string) (bool, error)
	VerifyDummy(password string) bool
}

// LoginLimiter tracks failed logins per email.
type LoginLimiter interface {
	Locked(ctx context.Context, id string) (bool, error)
	RecordFailure(ctx context.Context, id string) (bool, error)
	Reset(ctx context.Context, id string) error
}

// Config wires a Manager's collaborators. Lockout and Logger are optional.
type Config struct {
	DB        TxRunner
	Users     *user.Manager
	Orgs      *org.Manager
	Tokens    TokenIssuer
	Passwords PasswordVerifier
	Lockout   LoginLimiter
	Policy    MembershipPolicy
	Logger    *zap.Logger
}

// Manager runs the account workflows.
type Manager struct {
	db        TxRunner
	users     *user.Manager
	orgs      *org.Manager
	tokens    TokenIssuer
	passwords PasswordVerifier
	lockout   LoginLimiter
	policy    MembershipPolicy
	logger    *zap.Logger
	validate  *validator.Validate
}

// NewManager creates a new account manager.
func NewManager(cfg Config) *Manager {
	if cfg.Policy == "" {
		cfg.Policy = PolicyMember
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Manager{
		db:        cfg.DB,
		users:     cfg.Users,
		orgs:      cfg.Orgs,
		tokens:    cfg.Tokens,
		passwords: cfg.Passwords,
		lockout:   cfg.Lockout,
		policy:    cfg.Policy,
		logger:    cfg.Logger,
		validate:  newValidator(),
	}
}

// Register creates a user together with a default organisation containing
// only that user, then issues an access token. The user, organisation and
// membership are written in one transaction.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.normalize()
	if err := m.validateStruct(in); err != nil {
		return nil, err
	}

	var u *user.User
	err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		u, err = m.users.WithDB(tx).Create(ctx, user.NewUser{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			Password:  in.Password,
			Phone:     in.Phone,
		})
		if err != nil {
			return err
		}

		orgs := m.orgs.WithDB(tx)
		o, err := orgs.Create(ctx, org.DefaultName(u.FirstName), "", uuid.NullUUID{UUID: u.ID, Valid: true})
		if err != nil {
			return err
		}
		return orgs.AddMember(ctx, o.ID, u.ID)
	})
	if err != nil {
		var fieldErr *user.FieldError
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			return nil, newValidationError("email", "email already exists")
		case errors.As(err, &fieldErr):
			return nil, newValidationError(fieldErr.Field, fieldErr.Message)
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	m.logger.Info("user registered", zap.String("user_id", u.ID.String()))
	return m.authResult(u)
}

// Login checks credentials and issues an access token. Unknown emails and
// wrong passwords both yield ErrAuthentication.
func (m *Manager) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = user.NormalizeEmail(in.Email)
	if err := m.validateStruct(in); err != nil {
		return nil, err
	}

	if m.lockout != nil {
		locked, err := m.lockout.Locked(ctx, in.Email)
		if err != nil {
			m.logger.Warn("login lockout check failed", zap.Error(err))
		} else if locked {
			return nil, ErrTooManyAttempts
		}
	}

	u, err := m.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			m.passwords.VerifyDummy(in.Password)
			m.recordFailure(ctx, in.Email)
			return nil, ErrAuthentication
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := m.passwords.Verify(in.Password, u.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		m.recordFailure(ctx, in.Email)
		return nil, ErrAuthentication
	}

	if m.lockout != nil {
		if err := m.lockout.Reset(ctx, in.Email); err != nil {
			m.logger.Warn("failed to reset login failures", zap.Error(err))
		}
	}

	return m.authResult(u)
}

func (m *Manager) recordFailure(ctx context.Context, email string) {
	if m.lockout == nil {
		return
	}
	reached, err := m.lockout.RecordFailure(ctx, email)
	if err != nil {
		m.logger.Warn("failed to record login failure", zap.Error(err))
		return
	}
	if reached {
		m.logger.Warn("login locked out", zap.String("email", email))
	}
}

func (m *Manager) authResult(u *user.User) (*AuthResult, error) {
	accessToken, err := m.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{AccessToken: accessToken, User: u.Public()}, nil
}

// AddMember adds the user named in the input to orgID on behalf of callerID.
// Adding an existing member succeeds without change.
func (m *Manager) AddMember(ctx context.Context, callerID, orgID uuid.UUID, in AddMemberInput) error {
	if err := m.validateStruct(in); err != nil {
		return err
	}
	userID, err := uuid.Parse(in.UserID)
	if err != nil {
		return newValidationError("userId", "userId must be a valid UUID")
	}

	if _, err := m.GetOrganization(ctx, orgID); err != nil {
		return err
	}

	// Outsiders get ErrForbidden whether or not the target user exists.
	if m.policy == PolicyMember {
		ok, err := m.orgs.IsMember(ctx, orgID, callerID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrForbidden
		}
	}

	if _, err := m.GetUser(ctx, userID); err != nil {
		return err
	}

	if err := m.orgs.AddMember(ctx, orgID, userID); err != nil {
		switch {
		case errors.Is(err, org.ErrNotFound):
			return &NotFoundError{Resource: ResourceOrganisation}
		case errors.Is(err, org.ErrUserNotFound):
			return &NotFoundError{Resource: ResourceUser}
		}
		return err
	}
	return nil
}

// CreateOrganization creates an organisation owned by callerID and makes
// the caller its first member.
func (m *Manager) CreateOrganization(ctx context.Context, callerID uuid.UUID, in CreateOrganizationInput) (*org.Org, error) {
	in.normalize()
	if err := m.validateStruct(in); err != nil {
		return nil, err
	}

	var o *org.Org
	err := m.db.WithTx(ctx, func(tx *sql.Tx) error {
		orgs := m.orgs.WithDB(tx)
		var err error
		o, err = orgs.Create(ctx, in.Name, in.Description, uuid.NullUUID{UUID: callerID, Valid: true})
		if err != nil {
			return err
		}
		return orgs.AddMember(ctx, o.ID, callerID)
	})
	if err != nil {
		switch {
		case errors.Is(err, org.ErrInvalidName):
			return nil, newValidationError("name", "name is required")
		case errors.Is(err, org.ErrUserNotFound):
			return nil, &NotFoundError{Resource: ResourceUser}
		}
		return nil, err
	}
	return o, nil
}

// ListOrganizations returns every organisation in creation order.
func (m *Manager) ListOrganizations(ctx context.Context) ([]*org.Org, error) {
	return m.orgs.List(ctx)
}

// ListUserOrganizations returns the organisations userID belongs to.
func (m *Manager) ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]*org.Org, error) {
	return m.orgs.ListForUser(ctx, userID)
}

// GetOrganization returns an organisation or a *NotFoundError.
func (m *Manager) GetOrganization(ctx context.Context, id uuid.UUID) (*org.Org, error) {
	o, err := m.orgs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, org.ErrNotFound) {
			return nil, &NotFoundError{Resource: ResourceOrganisation}
		}
		return nil, err
	}
	return o, nil
}

// GetUser returns a user or a *NotFoundError.
func (m *Manager) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := m.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, &NotFoundError{Resource: ResourceUser}
		}
		return nil, err
	}
	return u, nil
}
