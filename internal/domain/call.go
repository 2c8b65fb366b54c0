package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallType represents the media kind of a call
type CallType string

const (
	CallTypeVoice CallType = "voice"
	CallTypeVideo CallType = "video"
)

// Valid reports whether the call type is one of the supported kinds
func (t CallType) Valid() bool {
	return t == CallTypeVoice || t == CallTypeVideo
}

// CallStatus is the closed set of call lifecycle states
type CallStatus string

const (
	CallStatusInitiated CallStatus = "initiated"
	CallStatusRinging   CallStatus = "ringing"
	CallStatusAnswered  CallStatus = "answered"
	CallStatusEnded     CallStatus = "ended"
	CallStatusMissed    CallStatus = "missed"
	CallStatusFailed    CallStatus = "failed"
)

// transitions is the authoritative state machine table.
// Terminal states (ended, missed, failed) have no outgoing edges.
var transitions = map[CallStatus][]CallStatus{
	CallStatusInitiated: {CallStatusRinging, CallStatusAnswered, CallStatusMissed, CallStatusFailed},
	CallStatusRinging:   {CallStatusAnswered, CallStatusMissed, CallStatusFailed},
	CallStatusAnswered:  {CallStatusEnded},
}

// Terminal reports whether the status accepts no further transitions
func (s CallStatus) Terminal() bool {
	switch s {
	case CallStatusEnded, CallStatusMissed, CallStatusFailed:
		return true
	}
	return false
}

// CanTransition reports whether the move from s to target is legal
func (s CallStatus) CanTransition(target CallStatus) bool {
	for _, next := range transitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Call represents one call attempt, internal (user-to-user) or external
// (routed by destination number through a trunk)
type Call struct {
	CallID     uuid.UUID  `json:"call_id"`
	CallerID   uuid.UUID  `json:"caller_id"`
	CalleeID   *uuid.UUID `json:"callee_id,omitempty"` // nil for external calls
	CallType   CallType   `json:"call_type"`
	Status     CallStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	Duration   int        `json:"duration"` // whole seconds, answered to ended

	// External calling fields
	IsInternational    bool       `json:"is_international"`
	DestinationCountry *string    `json:"destination_country,omitempty"`
	DestinationNumber  *string    `json:"destination_number,omitempty"`
	TrunkID            *uuid.UUID `json:"trunk_id,omitempty"`
	Cost               *float64   `json:"cost,omitempty"`
}

// IsExternal reports whether the call routes by destination number
func (c *Call) IsExternal() bool {
	return c.CalleeID == nil
}

// IsParty reports whether userID is the caller or the callee of the call
func (c *Call) IsParty(userID uuid.UUID) bool {
	if c.CallerID == userID {
		return true
	}
	return c.CalleeID != nil && *c.CalleeID == userID
}

// OtherParty returns the opposite party of userID, or nil for external calls
// or when userID is not a party
func (c *Call) OtherParty(userID uuid.UUID) *uuid.UUID {
	if c.CalleeID == nil {
		return nil
	}
	switch userID {
	case c.CallerID:
		return c.CalleeID
	case *c.CalleeID:
		caller := c.CallerID
		return &caller
	}
	return nil
}

// ComputeDuration returns ended minus answered in whole seconds, clamped at
// zero so out-of-order timestamps never produce a negative duration
func (c *Call) ComputeDuration() int {
	if c.AnsweredAt == nil || c.EndedAt == nil {
		return 0
	}
	d := int(c.EndedAt.Sub(*c.AnsweredAt).Seconds())
	if d < 0 {
		return 0
	}
	return d
}

// CallerProfile is the caller's public identity attached to incoming-call
// and offer events
type CallerProfile struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
}
