package voicemail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
	"ucplatform-backend/pkg/logger"
)

func init() {
	logger.InitDefault()
}

type MockVoicemailRepository struct {
	mock.Mock
}

func (m *MockVoicemailRepository) Create(ctx context.Context, vm *domain.Voicemail) error {
	args := m.Called(ctx, vm)
	return args.Error(0)
}

func (m *MockVoicemailRepository) GetByID(ctx context.Context, voicemailID, recipientID uuid.UUID) (*domain.Voicemail, error) {
	args := m.Called(ctx, voicemailID, recipientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Voicemail), args.Error(1)
}

func (m *MockVoicemailRepository) ListByRecipient(ctx context.Context, recipientID uuid.UUID, includeArchived bool) ([]*domain.Voicemail, error) {
	args := m.Called(ctx, recipientID, includeArchived)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Voicemail), args.Error(1)
}

func (m *MockVoicemailRepository) MarkRead(ctx context.Context, voicemailID, recipientID uuid.UUID) error {
	args := m.Called(ctx, voicemailID, recipientID)
	return args.Error(0)
}

func (m *MockVoicemailRepository) SetArchived(ctx context.Context, voicemailID, recipientID uuid.UUID, archived bool) error {
	args := m.Called(ctx, voicemailID, recipientID, archived)
	return args.Error(0)
}

func (m *MockVoicemailRepository) Delete(ctx context.Context, voicemailID, recipientID uuid.UUID) error {
	args := m.Called(ctx, voicemailID, recipientID)
	return args.Error(0)
}

type MockAudioStore struct {
	mock.Mock
}

func (m *MockAudioStore) Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	args := m.Called(ctx, objectName, reader, size, contentType)
	return args.Error(0)
}

func (m *MockAudioStore) PresignedGetURL(ctx context.Context, objectName string) (string, error) {
	args := m.Called(ctx, objectName)
	return args.String(0), args.Error(1)
}

func (m *MockAudioStore) Remove(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

func TestDeposit_UploadsThenRecords(t *testing.T) {
	repo := new(MockVoicemailRepository)
	audio := new(MockAudioStore)
	svc := NewService(repo, audio)

	recipient := uuid.New()
	audio.On("Upload", mock.Anything, mock.MatchedBy(func(name string) bool {
		return len(name) > 0
	}), mock.Anything, int64(2048), "audio/webm").Return(nil)

	var created *domain.Voicemail
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Voicemail")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Voicemail)
		}).Return(nil)

	name := "Jane Doe"
	vm, err := svc.Deposit(context.Background(), &DepositInput{
		RecipientID: recipient,
		CallerName:  &name,
		Duration:    42,
		Audio:       bytes.NewReader(make([]byte, 2048)),
		AudioSize:   2048,
		ContentType: "audio/webm",
	})
	require.NoError(t, err)

	assert.Equal(t, recipient, vm.RecipientID)
	assert.Equal(t, 42, vm.Duration)
	assert.False(t, vm.IsRead)
	assert.Contains(t, created.AudioObject, recipient.String())
}

func TestDeposit_CleansUpOnDBFailure(t *testing.T) {
	repo := new(MockVoicemailRepository)
	audio := new(MockAudioStore)
	svc := NewService(repo, audio)

	audio.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
	audio.On("Remove", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Deposit(context.Background(), &DepositInput{
		RecipientID: uuid.New(),
		Audio:       bytes.NewReader([]byte("x")),
		AudioSize:   1,
	})
	require.Error(t, err)
	assert.Equal(t, 500, apperrors.GetAppError(err).StatusCode)
	audio.AssertCalled(t, "Remove", mock.Anything, mock.Anything)
}

func TestList_BrokenObjectDoesNotHideInbox(t *testing.T) {
	repo := new(MockVoicemailRepository)
	audio := new(MockAudioStore)
	svc := NewService(repo, audio)

	recipient := uuid.New()
	good := &domain.Voicemail{VoicemailID: uuid.New(), RecipientID: recipient, AudioObject: "a"}
	bad := &domain.Voicemail{VoicemailID: uuid.New(), RecipientID: recipient, AudioObject: "b"}

	repo.On("ListByRecipient", mock.Anything, recipient, false).Return([]*domain.Voicemail{good, bad}, nil)
	audio.On("PresignedGetURL", mock.Anything, "a").Return("https://store/a", nil)
	audio.On("PresignedGetURL", mock.Anything, "b").Return("", errors.New("gone"))

	list, err := svc.List(context.Background(), recipient, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "https://store/a", list[0].AudioURL)
	assert.Empty(t, list[1].AudioURL)
}

func TestGet_MarksRead(t *testing.T) {
	repo := new(MockVoicemailRepository)
	audio := new(MockAudioStore)
	svc := NewService(repo, audio)

	recipient := uuid.New()
	vmID := uuid.New()
	repo.On("GetByID", mock.Anything, vmID, recipient).Return(&domain.Voicemail{
		VoicemailID: vmID,
		RecipientID: recipient,
		AudioObject: "a",
	}, nil)
	audio.On("PresignedGetURL", mock.Anything, "a").Return("https://store/a", nil)
	repo.On("MarkRead", mock.Anything, vmID, recipient).Return(nil)

	resp, err := svc.Get(context.Background(), vmID, recipient)
	require.NoError(t, err)
	assert.True(t, resp.IsRead)
	assert.Equal(t, "https://store/a", resp.AudioURL)
}

func TestDelete_RemovesAudio(t *testing.T) {
	repo := new(MockVoicemailRepository)
	audio := new(MockAudioStore)
	svc := NewService(repo, audio)

	recipient := uuid.New()
	vmID := uuid.New()
	repo.On("GetByID", mock.Anything, vmID, recipient).Return(&domain.Voicemail{
		VoicemailID: vmID,
		RecipientID: recipient,
		AudioObject: "obj",
	}, nil)
	repo.On("Delete", mock.Anything, vmID, recipient).Return(nil)
	audio.On("Remove", mock.Anything, "obj").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), vmID, recipient))
	audio.AssertCalled(t, "Remove", mock.Anything, "obj")
}

func TestDelete_NotFound(t *testing.T) {
	repo := new(MockVoicemailRepository)
	svc := NewService(repo, new(MockAudioStore))

	vmID := uuid.New()
	recipient := uuid.New()
	repo.On("GetByID", mock.Anything, vmID, recipient).Return(nil, domain.ErrNotFound)

	err := svc.Delete(context.Background(), vmID, recipient)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.GetAppError(err).StatusCode)
}
