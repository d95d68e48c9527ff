package handler

import (
	"context"

	"github.com/google/uuid"

	"orgdesk/internal/account"
	"orgdesk/internal/org"
	"orgdesk/internal/user"
)

// Accounts is the workflow surface the handlers depend on.
// *account.Manager satisfies it.
type Accounts interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.AuthResult, error)
	Login(ctx context.Context, in account.LoginInput) (*account.AuthResult, error)
	CreateOrganization(ctx context.Context, callerID uuid.UUID, in account.CreateOrganizationInput) (*org.Org, error)
	ListOrganizations(ctx context.Context) ([]*org.Org, error)
	ListUserOrganizations(ctx context.Context, userID uuid.UUID) ([]*org.Org, error)
	GetOrganization(ctx context.Context, id uuid.UUID) (*org.Org, error)
	AddMember(ctx context.Context, callerID, orgID uuid.UUID, in account.AddMemberInput) error
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
}
