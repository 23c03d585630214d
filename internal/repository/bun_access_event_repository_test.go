package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/dbtest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

func TestBunAccessEventRepository_AppendTransition(t *testing.T) {
	db := dbtest.New(t)
	stadium := dbtest.Stadium(t, db, "Olimpico")
	room := dbtest.Room(t, db, stadium.ID, "Tribuna")
	hostess := dbtest.User(t, db, "anna", "secret", auth.RoleHostess, stadium.ID)
	guest := dbtest.Guest(t, db, stadium.ID, room.ID, "Luca", "Bianchi")

	repo := NewBunAccessEventRepository(db)
	ctx := context.Background()

	latest, err := repo.Latest(ctx, guest.ID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	var seen []*models.AccessEvent
	toggle := func(latest *models.AccessEvent) (*models.AccessEvent, error) {
		seen = append(seen, latest)
		next := models.AccessEntry
		if latest != nil && latest.AccessType == models.AccessEntry {
			next = models.AccessExit
		}
		return &models.AccessEvent{
			HostessID:  hostess.ID,
			StadiumID:  stadium.ID,
			AccessType: next,
			AccessTime: time.Now(),
			DeviceType: "tablet",
		}, nil
	}

	first, err := repo.AppendTransition(ctx, guest.ID, toggle)
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	second, err := repo.AppendTransition(ctx, guest.ID, toggle)
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Equal(t, first.ID, seen[1].ID)

	events, err := repo.ListByGuest(ctx, guest.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.AccessEntry, events[0].AccessType)
	assert.Equal(t, models.AccessExit, events[1].AccessType)
}

func TestBunAccessEventRepository_DecideErrorAppendsNothing(t *testing.T) {
	db := dbtest.New(t)
	stadium := dbtest.Stadium(t, db, "Olimpico")
	room := dbtest.Room(t, db, stadium.ID, "Tribuna")
	guest := dbtest.Guest(t, db, stadium.ID, room.ID, "Luca", "Bianchi")

	repo := NewBunAccessEventRepository(db)
	ctx := context.Background()

	refuse := errors.New("refused")
	_, err := repo.AppendTransition(ctx, guest.ID, func(*models.AccessEvent) (*models.AccessEvent, error) {
		return nil, refuse
	})
	assert.ErrorIs(t, err, refuse)

	events, err := repo.ListByGuest(ctx, guest.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestBunRoomAssignmentRepository(t *testing.T) {
	db := dbtest.New(t)
	stadium := dbtest.Stadium(t, db, "Olimpico")
	room5 := dbtest.Room(t, db, stadium.ID, "Room 5")
	room7 := dbtest.Room(t, db, stadium.ID, "Room 7")
	hostess := dbtest.User(t, db, "anna", "secret", auth.RoleHostess, stadium.ID)

	repo := NewBunRoomAssignmentRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Assign(ctx, hostess.ID, room5.ID))

	ok, err := repo.IsAssigned(ctx, hostess.ID, room5.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsAssigned(ctx, hostess.ID, room7.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Deactivate(ctx, hostess.ID, room5.ID))
	ok, err = repo.IsAssigned(ctx, hostess.ID, room5.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// reassigning reactivates
	require.NoError(t, repo.Assign(ctx, hostess.ID, room5.ID))
	rooms, err := repo.ActiveRooms(ctx, hostess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{room5.ID}, rooms)
}
