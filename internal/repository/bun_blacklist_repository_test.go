package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/dbtest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

func TestBunBlacklistRepository_AddContains(t *testing.T) {
	db := dbtest.New(t)
	repo := NewBunBlacklistRepository(db)
	ctx := context.Background()

	ok, err := repo.Contains(ctx, "hash-a")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := &models.BlacklistEntry{
		TokenHash: "hash-a",
		UserID:    "user-1",
		TokenType: "access",
		ExpiresAt: time.Now().Add(time.Hour),
		Reason:    "logout",
	}
	require.NoError(t, repo.Add(ctx, entry))

	ok, err = repo.Contains(ctx, "hash-a")
	require.NoError(t, err)
	assert.True(t, ok)

	// second revoke of the same token is ignored
	dup := *entry
	dup.Reason = "admin"
	require.NoError(t, repo.Add(ctx, &dup))

	var stored models.BlacklistEntry
	require.NoError(t, db.NewSelect().Model(&stored).Where("token_hash = ?", "hash-a").Scan(ctx))
	assert.Equal(t, "logout", stored.Reason)
}

func TestBunBlacklistRepository_PurgeExpiredOnlyRemovesExpired(t *testing.T) {
	db := dbtest.New(t)
	repo := NewBunBlacklistRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	entries := map[string]time.Duration{
		"expired-long-ago": -48 * time.Hour,
		"expired-just-now": -time.Second,
		"expires-soon":     time.Second * 30,
		"expires-later":    7 * 24 * time.Hour,
	}
	for hash, offset := range entries {
		require.NoError(t, repo.Add(ctx, &models.BlacklistEntry{
			TokenHash: hash,
			UserID:    "user-1",
			TokenType: "refresh",
			ExpiresAt: now.Add(offset),
			Reason:    "logout",
		}))
	}

	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	for hash, offset := range entries {
		ok, err := repo.Contains(ctx, hash)
		require.NoError(t, err)
		assert.Equal(t, offset > 0, ok, hash)
	}

	n, err = repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)
}
