package user

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
	"ucplatform-backend/pkg/jwt"
	"ucplatform-backend/pkg/logger"
	"ucplatform-backend/pkg/password"
)

func init() {
	logger.InitDefault()
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) TouchLastSeen(ctx context.Context, userID uuid.UUID, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

type MockPresenceRepository struct {
	mock.Mock
}

func (m *MockPresenceRepository) SetUserOnline(ctx context.Context, userID uuid.UUID, status string) error {
	args := m.Called(ctx, userID, status)
	return args.Error(0)
}

func (m *MockPresenceRepository) SetUserOffline(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPresenceRepository) GetStatus(ctx context.Context, userID uuid.UUID) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockPresenceRepository) RefreshPresence(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockPresenceRepository) IsUserOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPresenceRepository) GetOnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockPresenceRepository) GetOnlineCount(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type recordingBroadcaster struct {
	broadcasts []struct {
		event string
		data  map[string]interface{}
	}
}

func (b *recordingBroadcaster) SendToUser(userID uuid.UUID, event string, data interface{}) bool {
	return true
}

func (b *recordingBroadcaster) BroadcastAll(event string, data interface{}) {
	b.broadcasts = append(b.broadcasts, struct {
		event string
		data  map[string]interface{}
	}{event, data.(map[string]interface{})})
}

func newTestService() (*Service, *MockUserRepository, *MockPresenceRepository, *recordingBroadcaster) {
	users := new(MockUserRepository)
	presence := new(MockPresenceRepository)
	broadcaster := &recordingBroadcaster{}
	svc := NewService(users, presence, broadcaster, jwt.NewManager("test-secret", time.Hour))
	return svc, users, presence, broadcaster
}

func TestRegister_Success(t *testing.T) {
	svc, users, _, _ := newTestService()

	users.On("GetByUsername", mock.Anything, "alice").Return(nil, domain.ErrNotFound)
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, domain.ErrNotFound)

	var created *domain.User
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.User)
		}).Return(nil)

	user, err := svc.Register(context.Background(), &RegisterInput{
		Username:  "alice",
		Email:     "Alice@Example.com",
		Password:  "Sup3rSecret",
		FirstName: "Alice",
		LastName:  "Smith",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	require.NotNil(t, created)
	assert.True(t, password.Verify(created.PasswordHash, "Sup3rSecret"))
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, users, _, _ := newTestService()

	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{Username: "alice"}, nil)

	_, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Sup3rSecret",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeUsernameExists, apperrors.GetAppError(err).Code)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _, _, _ := newTestService()

	_, err := svc.Register(context.Background(), &RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "short",
	})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
}

func TestLogin_Success(t *testing.T) {
	svc, users, _, _ := newTestService()

	hash, err := password.Hash("Sup3rSecret")
	require.NoError(t, err)

	userID := uuid.New()
	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		UserID:       userID,
		Username:     "alice",
		PasswordHash: hash,
		Role:         domain.RoleAgent,
		IsActive:     true,
	}, nil)
	users.On("TouchLastSeen", mock.Anything, userID, mock.Anything).Return(nil)

	token, user, err := svc.Login(context.Background(), "alice", "Sup3rSecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, userID, user.UserID)

	claims, err := jwt.NewManager("test-secret", time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, domain.RoleAgent, claims.Role)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users, _, _ := newTestService()

	hash, _ := password.Hash("Sup3rSecret")
	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		Username:     "alice",
		PasswordHash: hash,
		IsActive:     true,
	}, nil)

	_, _, err := svc.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, 401, apperrors.GetAppError(err).StatusCode)
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	svc, users, _, _ := newTestService()

	users.On("GetByUsername", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeInvalidCreds, apperrors.GetAppError(err).Code)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	svc, users, _, _ := newTestService()

	hash, _ := password.Hash("Sup3rSecret")
	users.On("GetByUsername", mock.Anything, "alice").Return(&domain.User{
		Username:     "alice",
		PasswordHash: hash,
		IsActive:     false,
	}, nil)

	_, _, err := svc.Login(context.Background(), "alice", "Sup3rSecret")
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.GetAppError(err).StatusCode)
}

func TestUpdateStatus_BroadcastsToEveryone(t *testing.T) {
	svc, users, presence, broadcaster := newTestService()

	userID := uuid.New()
	users.On("GetByID", mock.Anything, userID).Return(&domain.User{
		UserID: userID,
		Status: domain.PresenceAvailable,
	}, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)
	presence.On("SetUserOnline", mock.Anything, userID, domain.PresenceDND).Return(nil)

	err := svc.UpdateStatus(context.Background(), userID, domain.PresenceDND)
	require.NoError(t, err)

	require.Len(t, broadcaster.broadcasts, 1)
	assert.Equal(t, domain.EventUserStatusUpdate, broadcaster.broadcasts[0].event)
	assert.Equal(t, domain.PresenceDND, broadcaster.broadcasts[0].data["status"])
}

func TestUpdateStatus_InvalidStatus(t *testing.T) {
	svc, _, _, broadcaster := newTestService()

	err := svc.UpdateStatus(context.Background(), uuid.New(), "Sleeping")
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.GetAppError(err).StatusCode)
	assert.Empty(t, broadcaster.broadcasts)
}

func TestHandleConnectAndDisconnect(t *testing.T) {
	svc, users, presence, broadcaster := newTestService()

	userID := uuid.New()
	users.On("GetByID", mock.Anything, userID).Return(&domain.User{
		UserID: userID,
		Status: domain.PresenceBusy,
	}, nil)
	presence.On("SetUserOnline", mock.Anything, userID, domain.PresenceBusy).Return(nil)
	presence.On("SetUserOffline", mock.Anything, userID).Return(nil)
	users.On("TouchLastSeen", mock.Anything, userID, mock.Anything).Return(nil)

	svc.HandleConnect(userID)
	svc.HandleDisconnect(userID)

	require.Len(t, broadcaster.broadcasts, 2)
	assert.Equal(t, domain.EventUserConnected, broadcaster.broadcasts[0].event)
	assert.Equal(t, domain.EventUserDisconnected, broadcaster.broadcasts[1].event)
}

func TestHeartbeat_RefreshesLivePresence(t *testing.T) {
	svc, users, presence, _ := newTestService()
	userID := uuid.New()

	presence.On("IsUserOnline", mock.Anything, userID).Return(true, nil)
	presence.On("RefreshPresence", mock.Anything, userID).Return(nil)
	users.On("TouchLastSeen", mock.Anything, userID, mock.Anything).Return(nil)

	require.NoError(t, svc.Heartbeat(context.Background(), userID))
	presence.AssertCalled(t, "RefreshPresence", mock.Anything, userID)
	presence.AssertNotCalled(t, "SetUserOnline", mock.Anything, userID, mock.Anything)
}

func TestHeartbeat_RestoresLapsedPresence(t *testing.T) {
	svc, users, presence, _ := newTestService()
	userID := uuid.New()

	presence.On("IsUserOnline", mock.Anything, userID).Return(false, nil)
	users.On("GetByID", mock.Anything, userID).Return(&domain.User{
		UserID: userID,
		Status: domain.PresenceAway,
	}, nil)
	presence.On("SetUserOnline", mock.Anything, userID, domain.PresenceAway).Return(nil)
	users.On("TouchLastSeen", mock.Anything, userID, mock.Anything).Return(nil)

	require.NoError(t, svc.Heartbeat(context.Background(), userID))
	presence.AssertCalled(t, "SetUserOnline", mock.Anything, userID, domain.PresenceAway)
	presence.AssertNotCalled(t, "RefreshPresence", mock.Anything, userID)
}

func TestOnlineCount(t *testing.T) {
	svc, _, presence, _ := newTestService()

	presence.On("GetOnlineCount", mock.Anything).Return(int64(7), nil)

	count, err := svc.OnlineCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestSetRole_AdminOnly(t *testing.T) {
	svc, users, _, _ := newTestService()
	userID := uuid.New()

	_, err := svc.SetRole(context.Background(), domain.RoleUser, userID, domain.RoleAgent)
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.GetAppError(err).StatusCode)

	users.On("GetByID", mock.Anything, userID).Return(&domain.User{UserID: userID, Role: domain.RoleUser}, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)

	updated, err := svc.SetRole(context.Background(), domain.RoleAdmin, userID, domain.RoleAgent)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAgent, updated.Role)
}

func TestDeleteUser_AdminOnly(t *testing.T) {
	svc, users, _, _ := newTestService()
	userID := uuid.New()

	err := svc.DeleteUser(context.Background(), domain.RoleAgent, userID)
	require.Error(t, err)
	assert.Equal(t, 403, apperrors.GetAppError(err).StatusCode)

	users.On("Delete", mock.Anything, userID).Return(nil)
	assert.NoError(t, svc.DeleteUser(context.Background(), domain.RoleAdmin, userID))
}
