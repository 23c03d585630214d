// Package cmdutil holds the construction helpers shared by CLI commands.
package cmdutil

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/config"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/telemetry"
)

// redisBlacklistPrefix namespaces blacklist keys in a shared Redis.
const redisBlacklistPrefix = "hospitality:blacklist:"

// OpenDB connects to cfg.DatabaseURL with the given query hooks attached.
func OpenDB(cfg *config.Config, hooks ...bun.QueryHook) (*bun.DB, error) {
	db, err := bunx.NewDB(cfg.DatabaseURL, bunx.Options{
		MaxOpenConns: cfg.MaxDBConnections,
		Hooks:        hooks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// OpenRedis returns a client for cfg.Redis, or nil when no address is set.
func OpenRedis(ctx context.Context, cfg *config.Config) (redis.UniversalClient, error) {
	if cfg.Redis.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
	}
	return client, nil
}

// BlacklistRepository selects the blacklist backend named by cfg.Blacklist.Backend.
func BlacklistRepository(cfg *config.Config, db bun.IDB, rdb redis.UniversalClient) (repository.BlacklistRepository, error) {
	switch cfg.Blacklist.Backend {
	case config.BlacklistBackendRedis:
		if rdb == nil {
			return nil, fmt.Errorf("blacklist backend %q requires redis.addr", cfg.Blacklist.Backend)
		}
		return repository.NewRedisBlacklistRepository(rdb, redisBlacklistPrefix), nil
	default:
		return repository.NewBunBlacklistRepository(db), nil
	}
}

// TokenBundle is a TokenService together with the connections it holds.
type TokenBundle struct {
	Tokens *iam.TokenService
	DB     *bun.DB
	Redis  redis.UniversalClient
}

// Close releases the underlying connections.
func (b *TokenBundle) Close() {
	if b == nil {
		return
	}
	if b.Redis != nil {
		_ = b.Redis.Close()
	}
	_ = bunx.Close(b.DB)
}

// NewTokenBundle wires a TokenService for commands that only need token
// operations (blacklist maintenance).
func NewTokenBundle(ctx context.Context, cfg *config.Config, metrics *telemetry.DomainMetrics, log logrus.FieldLogger) (*TokenBundle, error) {
	db, err := OpenDB(cfg)
	if err != nil {
		return nil, err
	}
	rdb, err := OpenRedis(ctx, cfg)
	if err != nil {
		bunx.Close(db)
		return nil, err
	}
	bundle := &TokenBundle{DB: db, Redis: rdb}

	blacklist, err := BlacklistRepository(cfg, db, rdb)
	if err != nil {
		bundle.Close()
		return nil, err
	}
	tokens, err := iam.NewTokenService(iam.TokenConfigFrom(cfg), repository.NewBunUserRepository(db), blacklist, metrics, log)
	if err != nil {
		bundle.Close()
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}
	bundle.Tokens = tokens
	return bundle, nil
}
