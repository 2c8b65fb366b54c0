package domain

import (
	"time"

	"github.com/google/uuid"
)

// ChatType distinguishes one-to-one chats from named groups
type ChatType string

const (
	ChatTypeDirect ChatType = "direct"
	ChatTypeGroup  ChatType = "group"
)

// Chat is a conversation between two or more users
type Chat struct {
	ChatID    uuid.UUID `json:"chat_id" db:"chat_id"`
	Name      string    `json:"name" db:"name"`
	ChatType  ChatType  `json:"chat_type" db:"chat_type"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Participants []uuid.UUID `json:"participants,omitempty"`
}

// MessageType classifies message content
const (
	MessageTypeText  = "text"
	MessageTypeFile  = "file"
	MessageTypeImage = "image"
	MessageTypeAudio = "audio"
)

// Message is a single chat message. Messages are stored in Cassandra,
// bucketed by week for even partition sizes.
type Message struct {
	ChatID      uuid.UUID `json:"chat_id"`
	Bucket      int       `json:"-"`
	MessageID   uuid.UUID `json:"message_id"`
	SenderID    uuid.UUID `json:"sender_id"`
	Content     string    `json:"content"`
	MessageType string    `json:"message_type"`
	FileURL     *string   `json:"file_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CalculateBucket maps a timestamp to its week bucket (weeks since epoch)
func CalculateBucket(t time.Time) int {
	return int(t.Unix() / (7 * 24 * 3600))
}
