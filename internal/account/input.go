package account

import (
	"strings"

	"orgdesk/internal/org"
	"orgdesk/internal/user"
)

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

func (in *RegisterInput) normalize() {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = user.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreateOrganizationInput is the body of an organisation creation request.
type CreateOrganizationInput struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1000"`
}

func (in *CreateOrganizationInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
}

// AddMemberInput is the body of an add-user-to-organisation request.
type AddMemberInput struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

// AuthResult is returned by successful registration and login.
type AuthResult struct {
	AccessToken string      `json:"accessToken"`
	User        user.Public `json:"user"`
}

// OrganizationList wraps a list of organisations for responses.
type OrganizationList struct {
	Organisations []org.Public `json:"organisations"`
}

// NewOrganizationList converts orgs to their public form.
func NewOrganizationList(orgs []*org.Org) OrganizationList {
	out := OrganizationList{Organisations: make([]org.Public, len(orgs))}
	for i, o := range orgs {
		out.Organisations[i] = o.Public()
	}
	return out
}
