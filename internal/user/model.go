package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. PasswordHash holds an argon2id PHC string
// and is never serialised.
type User struct {
	ID           uuid.UUID
	FirstName    string
	LastName     string
	Email        string
	Phone        *string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser carries the fields needed to create a user. Password is plaintext
// and only lives until it is hashed.
type NewUser struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Phone     string
}

// Public is the externally visible view of a user.
type Public struct {
	UserID    string  `json:"userId"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Email     string  `json:"email"`
	Phone     *string `json:"phone"`
}

// Public returns the view of u that is safe to return to clients.
func (u *User) Public() Public {
	return Public{
		UserID:    u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
	}
}

// NormalizeEmail trims and lower-cases an email address. All stored and
// looked-up emails go through it, which makes uniqueness case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
