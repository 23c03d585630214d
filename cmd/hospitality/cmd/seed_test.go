package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/dbtest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
)

func TestSeedDev(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	res, err := seedDev(ctx, db, "demo-password")
	require.NoError(t, err)
	require.Len(t, res.Rooms, 2)
	require.Len(t, res.Users, 3)
	assert.Len(t, res.Guests, len(demoGuests))

	admin, err := repository.NewBunUserRepository(db).GetByUsername(ctx, "demo-admin")
	require.NoError(t, err)
	assert.Equal(t, res.Stadium.ID, admin.Stadium())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("demo-password")))

	assignments := repository.NewBunRoomAssignmentRepository(db)
	ok, err := assignments.IsAssigned(ctx, res.Users[1].ID, res.Rooms[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = assignments.IsAssigned(ctx, res.Users[1].ID, res.Rooms[1].ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSeedDev_SecondRunFailsAtomically(t *testing.T) {
	db := dbtest.New(t)
	ctx := context.Background()

	_, err := seedDev(ctx, db, "demo-password")
	require.NoError(t, err)

	_, err = seedDev(ctx, db, "demo-password")
	require.Error(t, err)

	count, err := db.NewSelect().Table("stadiums").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
