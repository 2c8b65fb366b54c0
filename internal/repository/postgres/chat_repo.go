package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ucplatform-backend/internal/domain"
)

// ChatRepository handles chat metadata persistence. Message bodies live
// in Cassandra, only the chat and its participant set live here.
type ChatRepository struct {
	pool *pgxpool.Pool
}

// NewChatRepository creates a new chat repository
func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// Create inserts a chat and its participants in one transaction
func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO chats (chat_id, chat_type, name, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		chat.ChatID, chat.ChatType, chat.Name, chat.CreatedBy, chat.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	for _, participantID := range chat.Participants {
		_, err = tx.Exec(ctx,
			`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`,
			chat.ChatID, participantID)
		if err != nil {
			return fmt.Errorf("failed to add chat participant: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit chat: %w", err)
	}

	return nil
}

// GetByID retrieves a chat with its participant set
func (r *ChatRepository) GetByID(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	chat := &domain.Chat{}
	err := r.pool.QueryRow(ctx,
		`SELECT chat_id, chat_type, name, created_by, created_at FROM chats WHERE chat_id = $1`,
		chatID).Scan(&chat.ChatID, &chat.ChatType, &chat.Name, &chat.CreatedBy, &chat.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	participants, err := r.participants(ctx, chatID)
	if err != nil {
		return nil, err
	}
	chat.Participants = participants

	return chat, nil
}

// ListByUser retrieves all chats a user participates in, newest first
func (r *ChatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	query := `
		SELECT c.chat_id, c.chat_type, c.name, c.created_by, c.created_at
		FROM chats c
		JOIN chat_participants p ON p.chat_id = c.chat_id
		WHERE p.user_id = $1
		ORDER BY c.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*domain.Chat
	for rows.Next() {
		chat := &domain.Chat{}
		if err := rows.Scan(&chat.ChatID, &chat.ChatType, &chat.Name, &chat.CreatedBy, &chat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, chat := range chats {
		participants, err := r.participants(ctx, chat.ChatID)
		if err != nil {
			return nil, err
		}
		chat.Participants = participants
	}

	return chats, nil
}

// IsParticipant reports whether a user belongs to a chat
func (r *ChatRepository) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_participants WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check chat participant: %w", err)
	}
	return exists, nil
}

// AddParticipant adds a user to a chat
func (r *ChatRepository) AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to add chat participant: %w", err)
	}
	return nil
}

// RemoveParticipant removes a user from a chat
func (r *ChatRepository) RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM chat_participants WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove chat participant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ChatRepository) participants(ctx context.Context, chatID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM chat_participants WHERE chat_id = $1`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat participants: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan chat participant: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
