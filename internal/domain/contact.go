package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a personal address-book entry owned by one user
type Contact struct {
	ContactID   uuid.UUID `json:"contact_id" db:"contact_id"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Email       *string   `json:"email,omitempty" db:"email"`
	PhoneNumber string    `json:"phone_number" db:"phone_number"`
	Company     *string   `json:"company,omitempty" db:"company"`
	Position    *string   `json:"position,omitempty" db:"position"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name for display
func (c *Contact) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// SplitName breaks a display name into first and last parts the way the
// contact forms submit them
func SplitName(name string) (first, last string) {
	for i, r := range name {
		if r == ' ' {
			return name[:i], name[i+1:]
		}
	}
	return name, ""
}
