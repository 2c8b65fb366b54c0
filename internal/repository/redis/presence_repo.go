package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"ucplatform-backend/internal/domain"
)

// presenceTTL is how long a user stays online without a heartbeat
const presenceTTL = 5 * time.Minute

// PresenceRepository handles user online/offline status in Redis
type PresenceRepository struct {
	client *redis.Client
}

// NewPresenceRepository creates a new PresenceRepository
func NewPresenceRepository(client *redis.Client) *PresenceRepository {
	return &PresenceRepository{client: client}
}

// SetUserOnline marks user as online with the given status
func (r *PresenceRepository) SetUserOnline(ctx context.Context, userID uuid.UUID, status string) error {
	key := fmt.Sprintf("presence:%s", userID)

	// Status auto-expires if not refreshed by heartbeat
	err := r.client.Set(ctx, key, status, presenceTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to set user online: %w", err)
	}

	// Add to online users set for quick listing
	err = r.client.SAdd(ctx, "presence:online", userID.String()).Err()
	if err != nil {
		return fmt.Errorf("failed to add to online set: %w", err)
	}

	return nil
}

// SetUserOffline marks user as offline
func (r *PresenceRepository) SetUserOffline(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("presence:%s", userID)

	err := r.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete presence: %w", err)
	}

	err = r.client.SRem(ctx, "presence:online", userID.String()).Err()
	if err != nil {
		return fmt.Errorf("failed to remove from online set: %w", err)
	}

	return nil
}

// GetStatus returns the current presence status, or Offline if none is set
func (r *PresenceRepository) GetStatus(ctx context.Context, userID uuid.UUID) (string, error) {
	key := fmt.Sprintf("presence:%s", userID)

	status, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PresenceOffline, nil
		}
		return "", fmt.Errorf("failed to get presence: %w", err)
	}

	return status, nil
}

// IsUserOnline checks if user is currently online
func (r *PresenceRepository) IsUserOnline(ctx context.Context, userID uuid.UUID) (bool, error) {
	key := fmt.Sprintf("presence:%s", userID)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check presence: %w", err)
	}

	return exists > 0, nil
}

// RefreshPresence keeps user online (heartbeat)
func (r *PresenceRepository) RefreshPresence(ctx context.Context, userID uuid.UUID) error {
	key := fmt.Sprintf("presence:%s", userID)

	err := r.client.Expire(ctx, key, presenceTTL).Err()
	if err != nil {
		return fmt.Errorf("failed to refresh presence: %w", err)
	}

	return nil
}

// GetOnlineUsers retrieves list of online user IDs
func (r *PresenceRepository) GetOnlineUsers(ctx context.Context) ([]uuid.UUID, error) {
	userIDStrs, err := r.client.SMembers(ctx, "presence:online").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get online users: %w", err)
	}

	userIDs := make([]uuid.UUID, 0, len(userIDStrs))
	for _, idStr := range userIDStrs {
		userID, err := uuid.Parse(idStr)
		if err != nil {
			continue // Skip invalid UUIDs
		}
		userIDs = append(userIDs, userID)
	}

	return userIDs, nil
}

// GetOnlineCount returns number of online users
func (r *PresenceRepository) GetOnlineCount(ctx context.Context) (int64, error) {
	count, err := r.client.SCard(ctx, "presence:online").Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count online users: %w", err)
	}
	return count, nil
}
