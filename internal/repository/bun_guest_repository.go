package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

// BunGuestRepository implements GuestRepository using Bun ORM
type BunGuestRepository struct {
	db  bun.IDB
	now func() time.Time
}

// NewBunGuestRepository creates a new Bun-based guest repository
func NewBunGuestRepository(db bun.IDB) GuestRepository {
	return &BunGuestRepository{db: db, now: time.Now}
}

func (r *BunGuestRepository) Create(ctx context.Context, guest *models.Guest) error {
	if guest.ID == "" {
		guest.ID = bunx.NewUUIDv7()
	}
	now := NormalizeVersion(r.now())
	if guest.CreatedAt.IsZero() {
		guest.CreatedAt = now
	}
	guest.UpdatedAt = now
	if guest.VIPLevel == "" {
		guest.VIPLevel = models.VIPLevelStandard
	}

	if _, err := r.db.NewInsert().Model(guest).Exec(ctx); err != nil {
		return fmt.Errorf("create guest: %w", err)
	}
	return nil
}

func (r *BunGuestRepository) GetByID(ctx context.Context, id string) (*models.Guest, error) {
	guest := new(models.Guest)
	err := r.db.NewSelect().Model(guest).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("guest %s not found", id)
		}
		return nil, fmt.Errorf("get guest: %w", err)
	}
	guest.CreatedAt = guest.CreatedAt.UTC()
	guest.UpdatedAt = NormalizeVersion(guest.UpdatedAt)
	return guest, nil
}

func (r *BunGuestRepository) UpdateIfVersion(ctx context.Context, guest *models.Guest, expected time.Time, columns ...string) error {
	return CompareAndSwap(ctx, r.db, guest, expected, r.now(), columns...)
}
