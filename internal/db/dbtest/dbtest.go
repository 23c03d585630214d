// Package dbtest provides migrated in-memory SQLite databases and fixture
// helpers for package tests.
package dbtest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
	"golang.org/x/crypto/bcrypt"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/migrations"
)

// New opens an in-memory SQLite database with every migration applied.
// The database is closed when the test ends.
func New(t testing.TB) *bun.DB {
	t.Helper()

	db, err := bunx.NewDB("file::memory:", bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	ctx := context.Background()
	migrator := migrate.NewMigrator(db, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)

	return db
}

// Stadium inserts a stadium.
func Stadium(t testing.TB, db bun.IDB, name string) *models.Stadium {
	t.Helper()
	s := &models.Stadium{ID: bunx.NewUUIDv7(), Name: name, IsActive: true, CreatedAt: time.Now().UTC()}
	_, err := db.NewInsert().Model(s).Exec(context.Background())
	require.NoError(t, err)
	return s
}

// Room inserts a room in the given stadium.
func Room(t testing.TB, db bun.IDB, stadiumID, name string) *models.Room {
	t.Helper()
	r := &models.Room{ID: bunx.NewUUIDv7(), StadiumID: stadiumID, Name: name, Capacity: 40, CreatedAt: time.Now().UTC()}
	_, err := db.NewInsert().Model(r).Exec(context.Background())
	require.NoError(t, err)
	return r
}

// User inserts an active user with a bcrypt hash of password.
// stadiumID may be empty for super admins.
func User(t testing.TB, db bun.IDB, username, password string, role auth.Role, stadiumID string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		ID:           bunx.NewUUIDv7(),
		Username:     username,
		PasswordHash: string(hash),
		FullName:     username,
		Role:         role,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if stadiumID != "" {
		u.StadiumID = &stadiumID
	}
	_, err = db.NewInsert().Model(u).Exec(context.Background())
	require.NoError(t, err)
	return u
}

// Guest inserts a guest in the given room.
func Guest(t testing.TB, db bun.IDB, stadiumID, roomID, firstName, lastName string) *models.Guest {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	g := &models.Guest{
		ID:        bunx.NewUUIDv7(),
		StadiumID: stadiumID,
		RoomID:    roomID,
		FirstName: firstName,
		LastName:  lastName,
		VIPLevel:  models.VIPLevelStandard,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := db.NewInsert().Model(g).Exec(context.Background())
	require.NoError(t, err)
	return g
}

// Assign gives a hostess an active assignment to a room.
func Assign(t testing.TB, db bun.IDB, hostessID, roomID string) {
	t.Helper()
	a := &models.RoomAssignment{HostessID: hostessID, RoomID: roomID, Active: true, AssignedAt: time.Now().UTC()}
	_, err := db.NewInsert().Model(a).Exec(context.Background())
	require.NoError(t, err)
}
