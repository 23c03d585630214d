package repository

import (
	"context"
	"time"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

// UserRepository exposes persistence operations for login principals.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// BlacklistRepository is the persisted set of revoked token fingerprints.
// Keys are always auth.HashToken output, never raw tokens.
type BlacklistRepository interface {
	Contains(ctx context.Context, tokenHash string) (bool, error)
	// Add records a revocation. Adding an existing fingerprint is a no-op.
	Add(ctx context.Context, entry *models.BlacklistEntry) error
	// PurgeExpired deletes entries whose expires_at is before now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// GuestRepository exposes persistence operations for guest records.
type GuestRepository interface {
	Create(ctx context.Context, guest *models.Guest) error
	GetByID(ctx context.Context, id string) (*models.Guest, error)
	// UpdateIfVersion writes columns only when the stored version equals
	// expected. On success guest carries the new version.
	UpdateIfVersion(ctx context.Context, guest *models.Guest, expected time.Time, columns ...string) error
}

// TransitionFunc decides the next presence event given the latest one
// (nil when the guest has no events). Returning an error aborts the append.
type TransitionFunc func(latest *models.AccessEvent) (*models.AccessEvent, error)

// AccessEventRepository is the append-only presence log.
type AccessEventRepository interface {
	// AppendTransition reads the latest event and appends the event returned
	// by decide in one serialized transaction per guest.
	AppendTransition(ctx context.Context, guestID string, decide TransitionFunc) (*models.AccessEvent, error)
	Latest(ctx context.Context, guestID string) (*models.AccessEvent, error)
	ListByGuest(ctx context.Context, guestID string) ([]models.AccessEvent, error)
}

// RoomAssignmentRepository resolves which rooms a hostess may act on.
type RoomAssignmentRepository interface {
	IsAssigned(ctx context.Context, hostessID, roomID string) (bool, error)
	ActiveRooms(ctx context.Context, hostessID string) ([]string, error)
	Assign(ctx context.Context, hostessID, roomID string) error
	Deactivate(ctx context.Context, hostessID, roomID string) error
}

// StadiumRepository manages tenants and their rooms. Only seeding and
// administration commands write through it.
type StadiumRepository interface {
	Create(ctx context.Context, stadium *models.Stadium) error
	GetByID(ctx context.Context, id string) (*models.Stadium, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id string) (*models.Room, error)
}
