package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role names recognised by the platform. A user carries exactly one role.
const (
	RoleAdmin = "Admin"
	RoleAgent = "Agent"
	RoleUser  = "User"
)

// Presence statuses a user can publish. Offline is derived, never stored.
const (
	PresenceAvailable = "Available"
	PresenceAway      = "Away"
	PresenceDND       = "DND"
	PresenceBusy      = "Busy"
	PresenceOffline   = "Offline"
)

// ValidPresence reports whether s is one of the recognised presence statuses
func ValidPresence(s string) bool {
	switch s {
	case PresenceAvailable, PresenceAway, PresenceDND, PresenceBusy:
		return true
	}
	return false
}

// User represents a platform user
// Maps to the users table
type User struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose in JSON
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	PhoneNumber  *string   `json:"phone_number,omitempty" db:"phone_number"`
	Extension    *string   `json:"extension,omitempty" db:"extension"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"` // presence: Available, Away, DND, Busy
	IsActive     bool      `json:"is_active" db:"is_active"`
	LastSeen     time.Time `json:"last_seen" db:"last_seen"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// FullName joins first and last name for display
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsAdmin reports whether the user carries the Admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile returns the caller-facing public identity
func (u *User) Profile() CallerProfile {
	return CallerProfile{
		ID:       u.UserID,
		Name:     u.FullName(),
		Username: u.Username,
	}
}

// UserResponse is the safe user representation returned to clients
type UserResponse struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	FullName    string    `json:"full_name"`
	PhoneNumber *string   `json:"phone_number,omitempty"`
	Extension   *string   `json:"extension,omitempty"`
	Role        string    `json:"role"`
	Status      string    `json:"status"`
	IsActive    bool      `json:"is_active"`
	LastSeen    time.Time `json:"last_seen"`
	CreatedAt   time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse (removes sensitive data)
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		UserID:      u.UserID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		Extension:   u.Extension,
		Role:        u.Role,
		Status:      u.Status,
		IsActive:    u.IsActive,
		LastSeen:    u.LastSeen,
		CreatedAt:   u.CreatedAt,
	}
}
