package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
)

// ChatRepository persists chat metadata and membership
type ChatRepository interface {
	Create(ctx context.Context, chat *domain.Chat) error
	GetByID(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error
}

// MessageRepository persists message bodies
type MessageRepository interface {
	Save(message *domain.Message) error
	GetRecentMessages(chatID uuid.UUID, limit int) ([]*domain.Message, error)
	Get(chatID uuid.UUID, bucket int, createdAt time.Time, messageID uuid.UUID) (*domain.Message, error)
	Delete(chatID uuid.UUID, bucket int, createdAt time.Time, messageID uuid.UUID) error
}

// Notifier delivers events to a user's channel
type Notifier interface {
	SendToUser(userID uuid.UUID, event string, data interface{}) bool
}

// Service handles chats and messaging
type Service struct {
	chatRepo    ChatRepository
	messageRepo MessageRepository
	notifier    Notifier
}

// NewService creates a new chat service
func NewService(chatRepo ChatRepository, messageRepo MessageRepository, notifier Notifier) *Service {
	return &Service{
		chatRepo:    chatRepo,
		messageRepo: messageRepo,
		notifier:    notifier,
	}
}

// CreateChat starts a chat between the creator and the given participants.
// Two participants make a direct chat, more make a group.
func (s *Service) CreateChat(ctx context.Context, creatorID uuid.UUID, name string, participantIDs []uuid.UUID) (*domain.Chat, error) {
	members := map[uuid.UUID]bool{creatorID: true}
	for _, id := range participantIDs {
		members[id] = true
	}
	if len(members) < 2 {
		return nil, apperrors.ValidationError("a chat needs at least two participants")
	}

	chatType := domain.ChatTypeDirect
	if len(members) > 2 {
		chatType = domain.ChatTypeGroup
		if strings.TrimSpace(name) == "" {
			return nil, apperrors.MissingFieldError("name")
		}
	}

	participants := make([]uuid.UUID, 0, len(members))
	for id := range members {
		participants = append(participants, id)
	}

	chat := &domain.Chat{
		ChatID:       uuid.New(),
		Name:         strings.TrimSpace(name),
		ChatType:     chatType,
		CreatedBy:    creatorID,
		CreatedAt:    time.Now().UTC(),
		Participants: participants,
	}

	if err := s.chatRepo.Create(ctx, chat); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return chat, nil
}

// GetChat returns a chat the requester participates in
func (s *Service) GetChat(ctx context.Context, chatID, requesterID uuid.UUID) (*domain.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.ChatNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}

	if !contains(chat.Participants, requesterID) {
		// Same response as a missing chat, membership is not disclosed
		return nil, apperrors.ChatNotFoundError()
	}

	return chat, nil
}

// ListChats returns all chats the user participates in
func (s *Service) ListChats(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	chats, err := s.chatRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return chats, nil
}

// SendMessage stores a message and fans it out to the other participants
func (s *Service) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content, messageType string, fileURL *string) (*domain.Message, error) {
	if strings.TrimSpace(content) == "" && fileURL == nil {
		return nil, apperrors.MissingFieldError("content")
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}

	chat, err := s.GetChat(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ChatID:      chatID,
		MessageID:   uuid.New(),
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		FileURL:     fileURL,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.messageRepo.Save(message); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	for _, participantID := range chat.Participants {
		if participantID == senderID {
			continue
		}
		s.notifier.SendToUser(participantID, domain.EventNewMessage, map[string]interface{}{
			"chat_id": chatID,
			"message": message,
		})
	}

	return message, nil
}

// RecentMessages returns the latest messages of a chat, newest first
func (s *Service) RecentMessages(ctx context.Context, chatID, requesterID uuid.UUID, limit int) ([]*domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	if _, err := s.GetChat(ctx, chatID, requesterID); err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.GetRecentMessages(chatID, limit)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}
	return messages, nil
}

// DeleteMessage removes a message the requester sent. The message is
// addressed by id plus its send time, which also locates the week bucket.
func (s *Service) DeleteMessage(ctx context.Context, chatID, requesterID, messageID uuid.UUID, sentAt time.Time) error {
	if _, err := s.GetChat(ctx, chatID, requesterID); err != nil {
		return err
	}

	bucket := domain.CalculateBucket(sentAt)
	message, err := s.messageRepo.Get(chatID, bucket, sentAt, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.NotFoundError("Message")
		}
		return apperrors.DatabaseError(err)
	}

	if message.SenderID != requesterID {
		return apperrors.ForbiddenError("only the sender may delete a message")
	}

	if err := s.messageRepo.Delete(chatID, bucket, sentAt, messageID); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// AddParticipant adds a user to a group chat
func (s *Service) AddParticipant(ctx context.Context, chatID, requesterID, userID uuid.UUID) error {
	chat, err := s.GetChat(ctx, chatID, requesterID)
	if err != nil {
		return err
	}
	if chat.ChatType != domain.ChatTypeGroup {
		return apperrors.ValidationError("cannot add participants to a direct chat")
	}

	if err := s.chatRepo.AddParticipant(ctx, chatID, userID); err != nil {
		return apperrors.DatabaseError(err)
	}
	return nil
}

// LeaveChat removes the requester from a chat
func (s *Service) LeaveChat(ctx context.Context, chatID, requesterID uuid.UUID) error {
	if _, err := s.GetChat(ctx, chatID, requesterID); err != nil {
		return err
	}

	err := s.chatRepo.RemoveParticipant(ctx, chatID, requesterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.ChatNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, other := range ids {
		if other == id {
			return true
		}
	}
	return false
}
