package cassandra

import (
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"ucplatform-backend/internal/domain"
)

// MessageRepository handles message storage in Cassandra.
// Messages are partitioned by (chat_id, bucket) for even partition sizes.
type MessageRepository struct {
	session *gocql.Session
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(session *gocql.Session) *MessageRepository {
	return &MessageRepository{session: session}
}

// Save inserts a new message
func (r *MessageRepository) Save(message *domain.Message) error {
	if message.Bucket == 0 {
		message.Bucket = domain.CalculateBucket(message.CreatedAt)
	}
	if message.MessageID == uuid.Nil {
		message.MessageID = uuid.New()
	}

	query := `
		INSERT INTO messages (
			chat_id, bucket, message_id, sender_id, content,
			message_type, file_url, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := r.session.Query(query,
		message.ChatID,
		message.Bucket,
		message.MessageID,
		message.SenderID,
		message.Content,
		message.MessageType,
		message.FileURL,
		message.CreatedAt,
	).Exec()
	if err != nil {
		return fmt.Errorf("failed to save message: %w", err)
	}

	return nil
}

// GetByChat retrieves messages for a chat within one bucket, newest first
func (r *MessageRepository) GetByChat(chatID uuid.UUID, bucket int, limit int, pageState []byte) ([]*domain.Message, []byte, error) {
	query := `
		SELECT chat_id, bucket, message_id, sender_id, content,
		       message_type, file_url, created_at
		FROM messages
		WHERE chat_id = ? AND bucket = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	iter := r.session.Query(query, chatID, bucket, limit).PageState(pageState).Iter()

	var messages []*domain.Message
	for {
		message := &domain.Message{}
		if !iter.Scan(
			&message.ChatID,
			&message.Bucket,
			&message.MessageID,
			&message.SenderID,
			&message.Content,
			&message.MessageType,
			&message.FileURL,
			&message.CreatedAt,
		) {
			break
		}
		messages = append(messages, message)
	}

	nextPageState := iter.PageState()

	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return messages, nextPageState, nil
}

// GetRecentMessages gets messages from the current bucket, falling back to
// the previous bucket when the current one has too few
func (r *MessageRepository) GetRecentMessages(chatID uuid.UUID, limit int) ([]*domain.Message, error) {
	currentBucket := domain.CalculateBucket(time.Now())

	messages, _, err := r.GetByChat(chatID, currentBucket, limit, nil)
	if err != nil {
		return nil, err
	}

	if len(messages) < limit {
		older, _, err := r.GetByChat(chatID, currentBucket-1, limit-len(messages), nil)
		if err != nil {
			return nil, err
		}
		messages = append(messages, older...)
	}

	return messages, nil
}

// Get reads one message. The clustering key is (created_at, message_id), so
// both are required to address a row.
func (r *MessageRepository) Get(chatID uuid.UUID, bucket int, createdAt time.Time, messageID uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT chat_id, bucket, message_id, sender_id, content,
		       message_type, file_url, created_at
		FROM messages
		WHERE chat_id = ? AND bucket = ? AND created_at = ? AND message_id = ?
	`

	message := &domain.Message{}
	err := r.session.Query(query, chatID, bucket, createdAt, messageID).Scan(
		&message.ChatID,
		&message.Bucket,
		&message.MessageID,
		&message.SenderID,
		&message.Content,
		&message.MessageType,
		&message.FileURL,
		&message.CreatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return message, nil
}

// Delete removes a message, addressed by its full clustering key
func (r *MessageRepository) Delete(chatID uuid.UUID, bucket int, createdAt time.Time, messageID uuid.UUID) error {
	query := `DELETE FROM messages WHERE chat_id = ? AND bucket = ? AND created_at = ? AND message_id = ?`

	err := r.session.Query(query, chatID, bucket, createdAt, messageID).Exec()
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}

	return nil
}
