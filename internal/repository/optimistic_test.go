package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/dbtest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

func TestNextVersion(t *testing.T) {
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, base.Add(time.Second), NextVersion(base, base.Add(time.Second)))
	// clock did not advance
	assert.Equal(t, base.Add(time.Microsecond), NextVersion(base, base))
	// clock went backwards
	assert.Equal(t, base.Add(time.Microsecond), NextVersion(base, base.Add(-time.Minute)))
	// sub-microsecond precision is dropped
	assert.Equal(t, base.Add(2*time.Microsecond), NextVersion(base, base.Add(2*time.Microsecond+300)))
}

func setupGuest(t *testing.T) (*BunGuestRepository, *models.Guest) {
	t.Helper()
	db := dbtest.New(t)
	stadium := dbtest.Stadium(t, db, "San Siro")
	room := dbtest.Room(t, db, stadium.ID, "Sky Box 1")
	guest := dbtest.Guest(t, db, stadium.ID, room.ID, "Mario", "Rossi")

	repo := NewBunGuestRepository(db).(*BunGuestRepository)
	return repo, guest
}

func TestCompareAndSwap_Success(t *testing.T) {
	repo, guest := setupGuest(t)
	ctx := context.Background()

	loaded, err := repo.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	v0 := loaded.UpdatedAt

	loaded.Notes = "allergic to peanuts"
	require.NoError(t, repo.UpdateIfVersion(ctx, loaded, v0, "notes"))
	assert.True(t, loaded.UpdatedAt.After(v0))

	stored, err := repo.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, "allergic to peanuts", stored.Notes)
	assert.True(t, stored.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestCompareAndSwap_StaleVersionWritesNothing(t *testing.T) {
	repo, guest := setupGuest(t)
	ctx := context.Background()

	first, err := repo.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	v0 := first.UpdatedAt

	first.Notes = "first"
	require.NoError(t, repo.UpdateIfVersion(ctx, first, v0, "notes"))

	second := *first
	second.Notes = "second"
	second.Phone = "+39 000"
	err = repo.UpdateIfVersion(ctx, &second, v0, "notes", "phone")
	require.Error(t, err)

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.CodeVersionConflict, appErr.Code)
	current, ok := appErr.Details["current_version"].(time.Time)
	require.True(t, ok)
	assert.True(t, current.Equal(first.UpdatedAt))
	assert.True(t, second.UpdatedAt.Equal(v0))

	stored, err := repo.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Notes)
	assert.Empty(t, stored.Phone)
}

func TestCompareAndSwap_MissingRow(t *testing.T) {
	repo, guest := setupGuest(t)

	ghost := *guest
	ghost.ID = "does-not-exist"
	err := repo.UpdateIfVersion(context.Background(), &ghost, guest.UpdatedAt, "notes")
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestCompareAndSwap_ConcurrentSameVersion(t *testing.T) {
	repo, guest := setupGuest(t)
	ctx := context.Background()
	v0 := guest.UpdatedAt

	patches := []struct{ notes, phone string }{
		{"patch A", "+39 111"},
		{"patch B", "+39 222"},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(patches))
	for i, p := range patches {
		wg.Add(1)
		go func(i int, notes, phone string) {
			defer wg.Done()
			g := *guest
			g.Notes = notes
			g.Phone = phone
			errs[i] = repo.UpdateIfVersion(ctx, &g, v0, "notes", "phone")
		}(i, p.notes, p.phone)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			require.Equal(t, -1, winner, "both updates succeeded")
			winner = i
			continue
		}
		assert.True(t, apperr.IsCode(err, apperr.CodeVersionConflict), err)
	}
	require.NotEqual(t, -1, winner)

	stored, err := repo.GetByID(ctx, guest.ID)
	require.NoError(t, err)
	assert.Equal(t, patches[winner].notes, stored.Notes)
	assert.Equal(t, patches[winner].phone, stored.Phone)
}
