package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

// BunAccessEventRepository implements AccessEventRepository using Bun ORM.
// It only ever inserts and selects; there is no update or delete path.
type BunAccessEventRepository struct {
	db *bun.DB
}

// NewBunAccessEventRepository creates a new Bun-based access event repository
func NewBunAccessEventRepository(db *bun.DB) AccessEventRepository {
	return &BunAccessEventRepository{db: db}
}

// AppendTransition runs read-latest and append in one transaction.
//
// On PostgreSQL the guest row is locked FOR UPDATE first so concurrent
// transitions for the same guest queue behind each other; the second one
// observes the first one's event. SQLite connections are opened with a
// single writer, which gives the same ordering.
func (r *BunAccessEventRepository) AppendTransition(ctx context.Context, guestID string, decide TransitionFunc) (*models.AccessEvent, error) {
	var appended *models.AccessEvent

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if bunx.IsPostgres(tx) {
			var lockedID string
			err := tx.NewSelect().
				Model((*models.Guest)(nil)).
				Column("id").
				Where("id = ?", guestID).
				For("UPDATE").
				Scan(ctx, &lockedID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return apperr.NotFound("guest %s not found", guestID)
				}
				return fmt.Errorf("lock guest: %w", err)
			}
		}

		latest, err := latestEvent(ctx, tx, guestID)
		if err != nil {
			return err
		}

		event, err := decide(latest)
		if err != nil {
			return err
		}
		event.GuestID = guestID
		event.AccessTime = event.AccessTime.UTC()

		if _, err := tx.NewInsert().Model(event).Exec(ctx); err != nil {
			return fmt.Errorf("append access event: %w", err)
		}
		appended = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return appended, nil
}

// Latest returns the newest event for the guest, or nil when none exists.
func (r *BunAccessEventRepository) Latest(ctx context.Context, guestID string) (*models.AccessEvent, error) {
	return latestEvent(ctx, r.db, guestID)
}

// ListByGuest returns the guest's events oldest first.
func (r *BunAccessEventRepository) ListByGuest(ctx context.Context, guestID string) ([]models.AccessEvent, error) {
	var events []models.AccessEvent
	err := r.db.NewSelect().
		Model(&events).
		Where("guest_id = ?", guestID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list access events: %w", err)
	}
	for i := range events {
		events[i].AccessTime = events[i].AccessTime.UTC()
	}
	return events, nil
}

// latestEvent orders by id: appends for one guest are serialized, so id
// order is append order regardless of clock skew between hosts.
func latestEvent(ctx context.Context, db bun.IDB, guestID string) (*models.AccessEvent, error) {
	event := new(models.AccessEvent)
	err := db.NewSelect().
		Model(event).
		Where("guest_id = ?", guestID).
		Order("id DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest access event: %w", err)
	}
	event.AccessTime = event.AccessTime.UTC()
	return event, nil
}
