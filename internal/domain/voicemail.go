package domain

import (
	"time"

	"github.com/google/uuid"
)

// Voicemail is a recorded message left for one recipient.
// The audio itself lives in object storage; AudioObject is its key.
type Voicemail struct {
	VoicemailID  uuid.UUID `json:"voicemail_id" db:"voicemail_id"`
	RecipientID  uuid.UUID `json:"recipient_id" db:"recipient_id"`
	CallerNumber *string   `json:"caller_number,omitempty" db:"caller_number"`
	CallerName   *string   `json:"caller_name,omitempty" db:"caller_name"`
	AudioObject  string    `json:"-" db:"audio_object"`
	Duration     int       `json:"duration" db:"duration"` // seconds
	IsRead       bool      `json:"is_read" db:"is_read"`
	IsArchived   bool      `json:"is_archived" db:"is_archived"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// VoicemailResponse carries a voicemail plus a short-lived audio URL
type VoicemailResponse struct {
	Voicemail
	AudioURL string `json:"audio_url,omitempty"`
}
