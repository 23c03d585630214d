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

// BunStadiumRepository implements StadiumRepository using Bun ORM
type BunStadiumRepository struct {
	db bun.IDB
}

// NewBunStadiumRepository creates a new Bun-based stadium repository
func NewBunStadiumRepository(db bun.IDB) StadiumRepository {
	return &BunStadiumRepository{db: db}
}

func (r *BunStadiumRepository) Create(ctx context.Context, stadium *models.Stadium) error {
	if stadium.ID == "" {
		stadium.ID = bunx.NewUUIDv7()
	}
	if stadium.CreatedAt.IsZero() {
		stadium.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NewInsert().Model(stadium).Exec(ctx); err != nil {
		return fmt.Errorf("create stadium: %w", err)
	}
	return nil
}

func (r *BunStadiumRepository) GetByID(ctx context.Context, id string) (*models.Stadium, error) {
	stadium := new(models.Stadium)
	if err := r.db.NewSelect().Model(stadium).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("stadium %s not found", id)
		}
		return nil, fmt.Errorf("get stadium: %w", err)
	}
	return stadium, nil
}

func (r *BunStadiumRepository) CreateRoom(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = bunx.NewUUIDv7()
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NewInsert().Model(room).Exec(ctx); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (r *BunStadiumRepository) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	room := new(models.Room)
	if err := r.db.NewSelect().Model(room).Where("id = ?", id).Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("room %s not found", id)
		}
		return nil, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}
