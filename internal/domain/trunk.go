package domain

import (
	"time"

	"github.com/google/uuid"
)

// SIPTrunk is an outbound trunk used to place external calls.
// Dialing through a trunk is simulated; only the bookkeeping is real.
type SIPTrunk struct {
	TrunkID   uuid.UUID `json:"trunk_id" db:"trunk_id"`
	Name      string    `json:"name" db:"name"`
	Provider  string    `json:"provider" db:"provider"`
	SIPServer string    `json:"sip_server" db:"sip_server"`
	SIPPort   int       `json:"sip_port" db:"sip_port"`
	Username  *string   `json:"username,omitempty" db:"username"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// InternationalRate is a per-country price for outbound calls
type InternationalRate struct {
	RateID        uuid.UUID `json:"rate_id" db:"rate_id"`
	CountryCode   string    `json:"country_code" db:"country_code"` // e.g. +91
	CountryName   string    `json:"country_name" db:"country_name"`
	RatePerMinute float64   `json:"rate_per_minute" db:"rate_per_minute"` // USD
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
