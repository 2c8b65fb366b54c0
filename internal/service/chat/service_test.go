package chat

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
)

type MockChatRepository struct {
	mock.Mock
}

func (m *MockChatRepository) Create(ctx context.Context, chat *domain.Chat) error {
	args := m.Called(ctx, chat)
	return args.Error(0)
}

func (m *MockChatRepository) GetByID(ctx context.Context, chatID uuid.UUID) (*domain.Chat, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Chat), args.Error(1)
}

func (m *MockChatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Chat, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Chat), args.Error(1)
}

func (m *MockChatRepository) IsParticipant(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockChatRepository) AddParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

func (m *MockChatRepository) RemoveParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	args := m.Called(ctx, chatID, userID)
	return args.Error(0)
}

type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) Save(message *domain.Message) error {
	args := m.Called(message)
	return args.Error(0)
}

func (m *MockMessageRepository) GetRecentMessages(chatID uuid.UUID, limit int) ([]*domain.Message, error) {
	args := m.Called(chatID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) Get(chatID uuid.UUID, bucket int, createdAt time.Time, messageID uuid.UUID) (*domain.Message, error) {
	args := m.Called(chatID, bucket, createdAt, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) Delete(chatID uuid.UUID, bucket int, createdAt time.Time, messageID uuid.UUID) error {
	args := m.Called(chatID, bucket, createdAt, messageID)
	return args.Error(0)
}

type recordingNotifier struct {
	sent map[uuid.UUID][]string
}

func (n *recordingNotifier) SendToUser(userID uuid.UUID, event string, data interface{}) bool {
	if n.sent == nil {
		n.sent = make(map[uuid.UUID][]string)
	}
	n.sent[userID] = append(n.sent[userID], event)
	return true
}

func TestCreateChat_DirectVsGroup(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewService(repo, new(MockMessageRepository), &recordingNotifier{})

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	direct, err := svc.CreateChat(context.Background(), alice, "", []uuid.UUID{bob})
	require.NoError(t, err)
	assert.Equal(t, domain.ChatTypeDirect, direct.ChatType)
	assert.Len(t, direct.Participants, 2)

	group, err := svc.CreateChat(context.Background(), alice, "oncall", []uuid.UUID{bob, carol})
	require.NoError(t, err)
	assert.Equal(t, domain.ChatTypeGroup, group.ChatType)
	assert.Len(t, group.Participants, 3)

	// Groups need a name
	_, err = svc.CreateChat(context.Background(), alice, "", []uuid.UUID{bob, carol})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
}

func TestCreateChat_SoloRejected(t *testing.T) {
	svc := NewService(new(MockChatRepository), new(MockMessageRepository), &recordingNotifier{})
	alice := uuid.New()

	// Creator plus themselves collapses to one participant
	_, err := svc.CreateChat(context.Background(), alice, "", []uuid.UUID{alice})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
}

func TestSendMessage_FansOutToOthers(t *testing.T) {
	repo := new(MockChatRepository)
	messages := new(MockMessageRepository)
	notifier := &recordingNotifier{}
	svc := NewService(repo, messages, notifier)

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	chatID := uuid.New()

	repo.On("GetByID", mock.Anything, chatID).Return(&domain.Chat{
		ChatID:       chatID,
		ChatType:     domain.ChatTypeGroup,
		Participants: []uuid.UUID{alice, bob, carol},
	}, nil)
	messages.On("Save", mock.AnythingOfType("*domain.Message")).Return(nil)

	msg, err := svc.SendMessage(context.Background(), chatID, alice, "hello", "", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.MessageTypeText, msg.MessageType)
	assert.Equal(t, []string{domain.EventNewMessage}, notifier.sent[bob])
	assert.Equal(t, []string{domain.EventNewMessage}, notifier.sent[carol])
	assert.Empty(t, notifier.sent[alice])
}

func TestSendMessage_NonParticipantDenied(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewService(repo, new(MockMessageRepository), &recordingNotifier{})

	chatID := uuid.New()
	repo.On("GetByID", mock.Anything, chatID).Return(&domain.Chat{
		ChatID:       chatID,
		Participants: []uuid.UUID{uuid.New(), uuid.New()},
	}, nil)

	_, err := svc.SendMessage(context.Background(), chatID, uuid.New(), "hi", "", nil)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.GetAppError(err).StatusCode)
}

func TestSendMessage_EmptyContent(t *testing.T) {
	svc := NewService(new(MockChatRepository), new(MockMessageRepository), &recordingNotifier{})

	_, err := svc.SendMessage(context.Background(), uuid.New(), uuid.New(), "   ", "", nil)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
}

func TestAddParticipant_GroupOnly(t *testing.T) {
	repo := new(MockChatRepository)
	svc := NewService(repo, new(MockMessageRepository), &recordingNotifier{})

	alice := uuid.New()
	bob := uuid.New()
	chatID := uuid.New()

	repo.On("GetByID", mock.Anything, chatID).Return(&domain.Chat{
		ChatID:       chatID,
		ChatType:     domain.ChatTypeDirect,
		Participants: []uuid.UUID{alice, bob},
	}, nil)

	err := svc.AddParticipant(context.Background(), chatID, alice, uuid.New())
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
}

func TestDeleteMessage_SenderOnly(t *testing.T) {
	repo := new(MockChatRepository)
	messages := new(MockMessageRepository)
	svc := NewService(repo, messages, &recordingNotifier{})

	alice := uuid.New()
	bob := uuid.New()
	chatID := uuid.New()
	messageID := uuid.New()
	sentAt := time.Date(2026, 8, 20, 9, 30, 0, 0, time.UTC)
	bucket := domain.CalculateBucket(sentAt)

	repo.On("GetByID", mock.Anything, chatID).Return(&domain.Chat{
		ChatID:       chatID,
		Participants: []uuid.UUID{alice, bob},
	}, nil)
	messages.On("Get", chatID, bucket, sentAt, messageID).Return(&domain.Message{
		ChatID:    chatID,
		MessageID: messageID,
		SenderID:  alice,
		CreatedAt: sentAt,
	}, nil)
	messages.On("Delete", chatID, bucket, sentAt, messageID).Return(nil)

	// Another participant may not delete the sender's message
	err := svc.DeleteMessage(context.Background(), chatID, bob, messageID, sentAt)
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.GetAppError(err).StatusCode)
	messages.AssertNotCalled(t, "Delete", chatID, bucket, sentAt, messageID)

	err = svc.DeleteMessage(context.Background(), chatID, alice, messageID, sentAt)
	require.NoError(t, err)
	messages.AssertCalled(t, "Delete", chatID, bucket, sentAt, messageID)
}

func TestDeleteMessage_UnknownMessage(t *testing.T) {
	repo := new(MockChatRepository)
	messages := new(MockMessageRepository)
	svc := NewService(repo, messages, &recordingNotifier{})

	alice := uuid.New()
	chatID := uuid.New()
	sentAt := time.Now().UTC()

	repo.On("GetByID", mock.Anything, chatID).Return(&domain.Chat{
		ChatID:       chatID,
		Participants: []uuid.UUID{alice},
	}, nil)
	messages.On("Get", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, domain.ErrNotFound)

	err := svc.DeleteMessage(context.Background(), chatID, alice, uuid.New(), sentAt)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.GetAppError(err).StatusCode)
}

func TestRecentMessages_MembershipChecked(t *testing.T) {
	repo := new(MockChatRepository)
	messages := new(MockMessageRepository)
	svc := NewService(repo, messages, &recordingNotifier{})

	alice := uuid.New()
	chatID := uuid.New()

	repo.On("GetByID", mock.Anything, chatID).Return(&domain.Chat{
		ChatID:       chatID,
		Participants: []uuid.UUID{alice},
	}, nil)
	messages.On("GetRecentMessages", chatID, 50).Return([]*domain.Message{
		{ChatID: chatID, SenderID: alice, Content: "hey"},
	}, nil)

	list, err := svc.RecentMessages(context.Background(), chatID, alice, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
