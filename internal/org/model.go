package org

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Org represents an organisation. Users join organisations through the
// organization_members join table.
type Org struct {
	ID          uuid.UUID
	Name        string
	Description *string
	CreatedBy   uuid.NullUUID // user who created it, if any
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Member is one row of the organisation/user join table.
type Member struct {
	OrgID     uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
}

// Public is the externally visible view of an organisation.
type Public struct {
	OrgID       string  `json:"orgId"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// Public returns the client-facing view of o.
func (o *Org) Public() Public {
	return Public{
		OrgID:       o.ID.String(),
		Name:        o.Name,
		Description: o.Description,
	}
}

// DefaultName is the name of the organisation created for a new user.
func DefaultName(firstName string) string {
	return fmt.Sprintf("%s's Organisation", firstName)
}
