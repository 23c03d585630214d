package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

// BunBlacklistRepository implements BlacklistRepository using Bun ORM
type BunBlacklistRepository struct {
	db bun.IDB
}

// NewBunBlacklistRepository creates a new Bun-based blacklist repository
func NewBunBlacklistRepository(db bun.IDB) BlacklistRepository {
	return &BunBlacklistRepository{db: db}
}

// Contains checks if a fingerprint exists in the blacklist.
// Uses SELECT EXISTS so the lookup costs the same whether or not the row exists.
func (r *BunBlacklistRepository) Contains(ctx context.Context, tokenHash string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.BlacklistEntry)(nil)).
		Where("token_hash = ?", tokenHash).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return exists, nil
}

// Add inserts a revocation; duplicates are ignored so revoke stays idempotent.
func (r *BunBlacklistRepository) Add(ctx context.Context, entry *models.BlacklistEntry) error {
	if entry.RevokedAt.IsZero() {
		entry.RevokedAt = time.Now().UTC()
	}
	entry.ExpiresAt = entry.ExpiresAt.UTC()

	_, err := r.db.NewInsert().
		Model(entry).
		On("CONFLICT (token_hash) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("add token blacklist entry: %w", err)
	}
	return nil
}

// PurgeExpired removes entries whose token has naturally expired.
// Rows with expires_at >= now are never touched.
func (r *BunBlacklistRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*models.BlacklistEntry)(nil)).
		Where("expires_at < ?", now.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge expired blacklist entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
