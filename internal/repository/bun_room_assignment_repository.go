package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

// BunRoomAssignmentRepository implements RoomAssignmentRepository using Bun ORM
type BunRoomAssignmentRepository struct {
	db bun.IDB
}

// NewBunRoomAssignmentRepository creates a new Bun-based room assignment repository
func NewBunRoomAssignmentRepository(db bun.IDB) RoomAssignmentRepository {
	return &BunRoomAssignmentRepository{db: db}
}

// IsAssigned reports whether the hostess holds an active assignment to the room.
func (r *BunRoomAssignmentRepository) IsAssigned(ctx context.Context, hostessID, roomID string) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*models.RoomAssignment)(nil)).
		Where("hostess_id = ?", hostessID).
		Where("room_id = ?", roomID).
		Where("active = ?", true).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("check room assignment: %w", err)
	}
	return exists, nil
}

func (r *BunRoomAssignmentRepository) ActiveRooms(ctx context.Context, hostessID string) ([]string, error) {
	var rooms []string
	err := r.db.NewSelect().
		Model((*models.RoomAssignment)(nil)).
		Column("room_id").
		Where("hostess_id = ?", hostessID).
		Where("active = ?", true).
		Order("room_id ASC").
		Scan(ctx, &rooms)
	if err != nil {
		return nil, fmt.Errorf("list active rooms: %w", err)
	}
	return rooms, nil
}

// Assign creates or reactivates an assignment.
func (r *BunRoomAssignmentRepository) Assign(ctx context.Context, hostessID, roomID string) error {
	a := &models.RoomAssignment{
		HostessID:  hostessID,
		RoomID:     roomID,
		Active:     true,
		AssignedAt: time.Now().UTC(),
	}
	_, err := r.db.NewInsert().
		Model(a).
		On("CONFLICT (hostess_id, room_id) DO UPDATE").
		Set("active = EXCLUDED.active").
		Set("assigned_at = EXCLUDED.assigned_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("assign room: %w", err)
	}
	return nil
}

func (r *BunRoomAssignmentRepository) Deactivate(ctx context.Context, hostessID, roomID string) error {
	_, err := r.db.NewUpdate().
		Model((*models.RoomAssignment)(nil)).
		Set("active = ?", false).
		Where("hostess_id = ?", hostessID).
		Where("room_id = ?", roomID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deactivate room assignment: %w", err)
	}
	return nil
}
