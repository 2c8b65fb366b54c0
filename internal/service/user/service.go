package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ucplatform-backend/internal/domain"
	apperrors "ucplatform-backend/pkg/errors"
	"ucplatform-backend/pkg/jwt"
	"ucplatform-backend/pkg/logger"
	"ucplatform-backend/pkg/password"
)

// UserRepository persists user accounts
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	TouchLastSeen(ctx context.Context, userID uuid.UUID, at time.Time) error
	Delete(ctx context.Context, userID uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

// PresenceRepository tracks online status
type PresenceRepository interface {
	SetUserOnline(ctx context.Context, userID uuid.UUID, status string) error
	SetUserOffline(ctx context.Context, userID uuid.UUID) error
	GetStatus(ctx context.Context, userID uuid.UUID) (string, error)
	IsUserOnline(ctx context.Context, userID uuid.UUID) (bool, error)
	RefreshPresence(ctx context.Context, userID uuid.UUID) error
	GetOnlineUsers(ctx context.Context) ([]uuid.UUID, error)
	GetOnlineCount(ctx context.Context) (int64, error)
}

// Broadcaster publishes events to connected clients
type Broadcaster interface {
	SendToUser(userID uuid.UUID, event string, data interface{}) bool
	BroadcastAll(event string, data interface{})
}

// Service handles accounts, authentication and presence
type Service struct {
	userRepo    UserRepository
	presence    PresenceRepository
	broadcaster Broadcaster
	jwtManager  *jwt.Manager
}

// NewService creates a new user service
func NewService(userRepo UserRepository, presence PresenceRepository, broadcaster Broadcaster, jwtManager *jwt.Manager) *Service {
	return &Service{
		userRepo:    userRepo,
		presence:    presence,
		broadcaster: broadcaster,
		jwtManager:  jwtManager,
	}
}

// RegisterInput contains new account data
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	PhoneNumber *string
	Extension   *string
	Role        string
}

// Register creates a new account
func (s *Service) Register(ctx context.Context, input *RegisterInput) (*domain.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(strings.ToLower(input.Email))

	if input.Username == "" {
		return nil, apperrors.MissingFieldError("username")
	}
	if input.Email == "" {
		return nil, apperrors.MissingFieldError("email")
	}
	if err := password.Validate(input.Password); err != nil {
		return nil, apperrors.ValidationError(err.Error())
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	switch role {
	case domain.RoleAdmin, domain.RoleAgent, domain.RoleUser:
	default:
		return nil, apperrors.ValidationError("invalid role")
	}

	if _, err := s.userRepo.GetByUsername(ctx, input.Username); err == nil {
		return nil, apperrors.UsernameExistsError()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}
	if _, err := s.userRepo.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.EmailExistsError()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, apperrors.DatabaseError(err)
	}

	hash, err := password.Hash(input.Password)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password")
	}

	now := time.Now().UTC()
	user := &domain.User{
		UserID:       uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		Extension:    input.Extension,
		Role:         role,
		Status:       domain.PresenceAvailable,
		IsActive:     true,
		LastSeen:     now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	logger.Info("user registered",
		zap.String("user_id", user.UserID.String()),
		zap.String("username", user.Username))

	return user, nil
}

// Login verifies credentials and issues a JWT
func (s *Service) Login(ctx context.Context, username, pass string) (string, *domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, apperrors.InvalidCredentialsError()
		}
		return "", nil, apperrors.DatabaseError(err)
	}

	if !password.Verify(user.PasswordHash, pass) {
		return "", nil, apperrors.InvalidCredentialsError()
	}
	if !user.IsActive {
		return "", nil, apperrors.ForbiddenError("account is deactivated")
	}

	token, err := s.jwtManager.GenerateToken(user.UserID, user.Username, user.Role)
	if err != nil {
		return "", nil, apperrors.InternalError("failed to generate token")
	}

	if err := s.userRepo.TouchLastSeen(ctx, user.UserID, time.Now().UTC()); err != nil {
		logger.Warn("failed to touch last seen",
			zap.String("user_id", user.UserID.String()),
			zap.Error(err))
	}

	return token, user, nil
}

// GetUser returns one user
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.UserNotFoundError()
		}
		return nil, apperrors.DatabaseError(err)
	}
	return user, nil
}

// ListUsers returns users with online status resolved from presence
func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*domain.UserResponse, error) {
	if limit <= 0 {
		limit = 100
	}

	users, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	responses := make([]*domain.UserResponse, 0, len(users))
	for _, u := range users {
		resp := u.ToResponse()
		status, err := s.presence.GetStatus(ctx, u.UserID)
		if err == nil {
			resp.Status = status
		}
		responses = append(responses, resp)
	}

	return responses, nil
}

// UpdateProfileInput contains mutable profile fields
type UpdateProfileInput struct {
	FirstName   *string
	LastName    *string
	Email       *string
	PhoneNumber *string
	Extension   *string
}

// UpdateProfile modifies a user's own profile
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, input *UpdateProfileInput) (*domain.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*input.Email))
		if email != user.Email {
			if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
				return nil, apperrors.EmailExistsError()
			} else if !errors.Is(err, domain.ErrNotFound) {
				return nil, apperrors.DatabaseError(err)
			}
			user.Email = email
		}
	}
	if input.PhoneNumber != nil {
		user.PhoneNumber = input.PhoneNumber
	}
	if input.Extension != nil {
		user.Extension = input.Extension
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return user, nil
}

// SetRole changes a user's role. Admin only.
func (s *Service) SetRole(ctx context.Context, requesterRole string, userID uuid.UUID, role string) (*domain.User, error) {
	if requesterRole != domain.RoleAdmin {
		return nil, apperrors.ForbiddenError("admin role required")
	}
	switch role {
	case domain.RoleAdmin, domain.RoleAgent, domain.RoleUser:
	default:
		return nil, apperrors.ValidationError("invalid role")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return user, nil
}

// SetActive activates or deactivates an account. Admin only.
func (s *Service) SetActive(ctx context.Context, requesterRole string, userID uuid.UUID, active bool) (*domain.User, error) {
	if requesterRole != domain.RoleAdmin {
		return nil, apperrors.ForbiddenError("admin role required")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.IsActive = active
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, apperrors.DatabaseError(err)
	}

	return user, nil
}

// DeleteUser removes an account. Admin only.
func (s *Service) DeleteUser(ctx context.Context, requesterRole string, userID uuid.UUID) error {
	if requesterRole != domain.RoleAdmin {
		return apperrors.ForbiddenError("admin role required")
	}

	err := s.userRepo.Delete(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return apperrors.UserNotFoundError()
		}
		return apperrors.DatabaseError(err)
	}
	return nil
}

// UpdateStatus publishes a new presence status to everyone
func (s *Service) UpdateStatus(ctx context.Context, userID uuid.UUID, status string) error {
	if !domain.ValidPresence(status) {
		return apperrors.ValidationError("invalid presence status")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	user.Status = status
	if err := s.userRepo.Update(ctx, user); err != nil {
		return apperrors.DatabaseError(err)
	}

	if err := s.presence.SetUserOnline(ctx, userID, status); err != nil {
		logger.Warn("failed to store presence",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	s.broadcaster.BroadcastAll(domain.EventUserStatusUpdate, map[string]interface{}{
		"user_id": userID,
		"status":  status,
	})

	return nil
}

// Heartbeat refreshes presence and last-seen for an open session. A lapsed
// presence key is re-established rather than no-op refreshed, so a user
// whose TTL expired mid-session comes back online on the next beat.
func (s *Service) Heartbeat(ctx context.Context, userID uuid.UUID) error {
	online, err := s.presence.IsUserOnline(ctx, userID)
	if err != nil {
		return apperrors.InternalError("failed to check presence")
	}
	if !online {
		status := domain.PresenceAvailable
		if user, err := s.userRepo.GetByID(ctx, userID); err == nil && domain.ValidPresence(user.Status) {
			status = user.Status
		}
		if err := s.presence.SetUserOnline(ctx, userID, status); err != nil {
			return apperrors.InternalError("failed to restore presence")
		}
	} else if err := s.presence.RefreshPresence(ctx, userID); err != nil {
		return apperrors.InternalError("failed to refresh presence")
	}
	if err := s.userRepo.TouchLastSeen(ctx, userID, time.Now().UTC()); err != nil {
		logger.Warn("failed to touch last seen",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
	return nil
}

// HandleConnect is invoked when a user's first session opens
func (s *Service) HandleConnect(userID uuid.UUID) {
	ctx := context.Background()

	status := domain.PresenceAvailable
	if user, err := s.userRepo.GetByID(ctx, userID); err == nil && domain.ValidPresence(user.Status) {
		status = user.Status
	}

	if err := s.presence.SetUserOnline(ctx, userID, status); err != nil {
		logger.Warn("failed to set user online",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	s.broadcaster.BroadcastAll(domain.EventUserConnected, map[string]interface{}{
		"user_id": userID,
		"status":  status,
	})
}

// HandleDisconnect is invoked when a user's last session closes
func (s *Service) HandleDisconnect(userID uuid.UUID) {
	ctx := context.Background()

	if err := s.presence.SetUserOffline(ctx, userID); err != nil {
		logger.Warn("failed to set user offline",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
	if err := s.userRepo.TouchLastSeen(ctx, userID, time.Now().UTC()); err != nil {
		logger.Warn("failed to touch last seen",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}

	s.broadcaster.BroadcastAll(domain.EventUserDisconnected, map[string]interface{}{
		"user_id": userID,
	})
}

// OnlineUsers returns ids of all currently online users
func (s *Service) OnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.presence.GetOnlineUsers(ctx)
	if err != nil {
		return nil, apperrors.InternalError("failed to list online users")
	}
	return ids, nil
}

// OnlineCount returns the number of currently online users without
// transferring the member list
func (s *Service) OnlineCount(ctx context.Context) (int64, error) {
	count, err := s.presence.GetOnlineCount(ctx)
	if err != nil {
		return 0, apperrors.InternalError("failed to count online users")
	}
	return count, nil
}
