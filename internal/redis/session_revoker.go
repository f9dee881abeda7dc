package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"lyceum/internal/auth"
)

// redisSessionRevoker is the Redis implementation of auth.SessionRevoker.
type redisSessionRevoker struct {
	client *redis.Client
}

// NewRedisSessionRevoker creates a Redis-backed session revoker.
func NewRedisSessionRevoker(client *redis.Client) auth.SessionRevoker {
	return &redisSessionRevoker{client: client}
}

const revokedUserKeyPrefix = "rv:user:"

// RevokeUser marks all of a user's sessions revoked. A zero ttl means the
// revocation never expires on its own and must be cleared with RestoreUser.
func (r *redisSessionRevoker) RevokeUser(ctx context.Context, userID uint, ttl time.Duration) error {
	key := fmt.Sprintf("%s%d", revokedUserKeyPrefix, userID)
	if err := r.client.Set(ctx, key, "revoked", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke sessions for user %d: %w", userID, err)
	}
	return nil
}

// RestoreUser clears a user revocation.
func (r *redisSessionRevoker) RestoreUser(ctx context.Context, userID uint) error {
	key := fmt.Sprintf("%s%d", revokedUserKeyPrefix, userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to restore sessions for user %d: %w", userID, err)
	}
	return nil
}

// IsRevoked reports whether the user's sessions are currently revoked.
func (r *redisSessionRevoker) IsRevoked(ctx context.Context, userID uint) (bool, error) {
	key := fmt.Sprintf("%s%d", revokedUserKeyPrefix, userID)
	_, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check revocation for user %d: %w", userID, err)
	}
	return true, nil
}
