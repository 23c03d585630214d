package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

const defaultBlacklistKeyPrefix = "hospitality:blacklist:"

// RedisBlacklistRepository implements BlacklistRepository on Redis.
// Every key expires at its token's own exp, so Redis prunes the set itself.
type RedisBlacklistRepository struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisBlacklistRepository creates a blacklist stored under prefix ("" selects the default).
func NewRedisBlacklistRepository(client redis.UniversalClient, prefix string) BlacklistRepository {
	if prefix == "" {
		prefix = defaultBlacklistKeyPrefix
	}
	return &RedisBlacklistRepository{client: client, prefix: prefix}
}

type redisBlacklistValue struct {
	UserID    string    `json:"user_id"`
	StadiumID *string   `json:"stadium_id,omitempty"`
	TokenType string    `json:"token_type"`
	Reason    string    `json:"reason"`
	RevokedAt time.Time `json:"revoked_at"`
}

func (r *RedisBlacklistRepository) key(tokenHash string) string {
	return r.prefix + tokenHash
}

func (r *RedisBlacklistRepository) Contains(ctx context.Context, tokenHash string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(tokenHash)).Result()
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return n > 0, nil
}

func (r *RedisBlacklistRepository) Add(ctx context.Context, entry *models.BlacklistEntry) error {
	if entry.RevokedAt.IsZero() {
		entry.RevokedAt = time.Now().UTC()
	}
	if !entry.ExpiresAt.After(time.Now()) {
		// nothing to guard: an expired token never validates
		return nil
	}

	payload, err := json.Marshal(redisBlacklistValue{
		UserID:    entry.UserID,
		StadiumID: entry.StadiumID,
		TokenType: entry.TokenType,
		Reason:    entry.Reason,
		RevokedAt: entry.RevokedAt,
	})
	if err != nil {
		return fmt.Errorf("encode blacklist entry: %w", err)
	}

	err = r.client.SetArgs(ctx, r.key(entry.TokenHash), payload, redis.SetArgs{
		Mode:     "NX",
		ExpireAt: entry.ExpiresAt,
	}).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("add token blacklist entry: %w", err)
	}
	return nil
}

// PurgeExpired is a no-op: keys carry their own expiry.
func (r *RedisBlacklistRepository) PurgeExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
