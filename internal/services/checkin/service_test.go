package checkin

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/dbtest"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/services/iam"
)

type fixture struct {
	db      *bun.DB
	svc     *Service
	stadium *models.Stadium
	room5   *models.Room
	room7   *models.Room
	guest5  *models.Guest
	guest7  *models.Guest
	hostess auth.Principal
	admin   auth.Principal
	super   auth.Principal
}

func principalFor(u *models.User) auth.Principal {
	return auth.Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		StadiumID:   u.Stadium(),
		Permissions: u.Role.Capabilities(),
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	stadium := dbtest.Stadium(t, db, "Meazza")
	room5 := dbtest.Room(t, db, stadium.ID, "Sky Box 5")
	room7 := dbtest.Room(t, db, stadium.ID, "Sky Box 7")
	hostess := dbtest.User(t, db, "anna", "pw", auth.RoleHostess, stadium.ID)
	admin := dbtest.User(t, db, "admin", "pw", auth.RoleStadiumAdmin, stadium.ID)
	super := dbtest.User(t, db, "root", "pw", auth.RoleSuperAdmin, "")
	dbtest.Assign(t, db, hostess.ID, room5.ID)

	enforcer, err := auth.InitEnforcer()
	require.NoError(t, err)
	guard := iam.NewAccessGuard(enforcer, repository.NewBunRoomAssignmentRepository(db))

	log := logrus.New()
	log.Out = io.Discard
	svc := NewService(
		repository.NewBunGuestRepository(db),
		repository.NewBunAccessEventRepository(db),
		guard,
	).WithLogger(log)

	return &fixture{
		db:      db,
		svc:     svc,
		stadium: stadium,
		room5:   room5,
		room7:   room7,
		guest5:  dbtest.Guest(t, db, stadium.ID, room5.ID, "Marco", "Rossi"),
		guest7:  dbtest.Guest(t, db, stadium.ID, room7.ID, "Giulia", "Verdi"),
		hostess: principalFor(hostess),
		admin:   principalFor(admin),
		super:   principalFor(super),
	}
}

func (f *fixture) events(t *testing.T, guestID string) []models.AccessEvent {
	t.Helper()
	events, err := repository.NewBunAccessEventRepository(f.db).ListByGuest(context.Background(), guestID)
	require.NoError(t, err)
	return events
}

func TestDeriveState(t *testing.T) {
	assert.Equal(t, StateNotPresent, DeriveState(nil))
	assert.Equal(t, StatePresent, DeriveState(&models.AccessEvent{AccessType: models.AccessEntry}))
	assert.Equal(t, StateNotPresent, DeriveState(&models.AccessEvent{AccessType: models.AccessExit}))
}

func TestCheckin_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := Request{GuestID: f.guest5.ID, DeviceType: DeviceTablet}

	first, err := f.svc.Checkin(ctx, f.hostess, req)
	require.NoError(t, err)
	assert.NotZero(t, first.AccessID)
	assert.Equal(t, f.guest5.ID, first.Guest.ID)

	_, err = f.svc.Checkin(ctx, f.hostess, req)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeAlreadyCheckedIn), "got %v", err)

	e, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, f.hostess.UserID, e.Details["hostess_id"])
	assert.WithinDuration(t, first.AccessTime, e.Details["access_time"].(time.Time), time.Millisecond)

	events := f.events(t, f.guest5.ID)
	require.Len(t, events, 1)
	assert.Equal(t, models.AccessEntry, events[0].AccessType)
	assert.Equal(t, DeviceTablet, events[0].DeviceType)
}

func TestCheckinCheckoutCheckin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := Request{GuestID: f.guest5.ID}

	start := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	clock := start
	f.svc.now = func() time.Time { return clock }

	_, err := f.svc.Checkin(ctx, f.hostess, req)
	require.NoError(t, err)

	clock = start.Add(95 * time.Minute)
	out, err := f.svc.Checkout(ctx, f.hostess, req)
	require.NoError(t, err)
	assert.Equal(t, 95, out.DurationMinutes)

	clock = start.Add(2 * time.Hour)
	_, err = f.svc.Checkin(ctx, f.hostess, req)
	require.NoError(t, err)

	events := f.events(t, f.guest5.ID)
	require.Len(t, events, 3)
	assert.Equal(t, models.AccessEntry, events[0].AccessType)
	assert.Equal(t, models.AccessExit, events[1].AccessType)
	assert.Equal(t, models.AccessEntry, events[2].AccessType)

	state, err := f.svc.State(ctx, f.hostess, f.guest5.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatePresent, state)

	history, err := f.svc.History(ctx, f.hostess, f.guest5.ID, "")
	require.NoError(t, err)
	assert.Equal(t, StatePresent, history.State)
	assert.Len(t, history.Events, 3)
}

func TestCheckin_DeviceTypeStoredAsGiven(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Checkin(ctx, f.hostess, Request{GuestID: f.guest5.ID})
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, f.hostess, Request{GuestID: f.guest5.ID, DeviceType: DeviceMobile})
	require.NoError(t, err)

	events := f.events(t, f.guest5.ID)
	require.Len(t, events, 2)
	assert.Equal(t, DeviceUnknown, events[0].DeviceType)
	assert.Equal(t, DeviceMobile, events[1].DeviceType)
}

func TestCheckout_NotPresent(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkout(context.Background(), f.hostess, Request{GuestID: f.guest5.ID})
	assert.True(t, apperr.IsCode(err, apperr.CodeNotCheckedIn), "got %v", err)
	assert.Empty(t, f.events(t, f.guest5.ID))
}

func TestCheckin_ConcurrentDevices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	const contenders = 8

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Checkin(ctx, f.hostess, Request{GuestID: f.guest5.ID})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, apperr.IsCode(err, apperr.CodeAlreadyCheckedIn), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.events(t, f.guest5.ID), 1)
}

func TestCheckin_RoomNotAssigned(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Checkin(context.Background(), f.hostess, Request{GuestID: f.guest7.ID})
	assert.True(t, apperr.IsCode(err, apperr.CodeRoomNotAssigned), "got %v", err)
	assert.Empty(t, f.events(t, f.guest7.ID))

	// admins are not bound to room assignments
	_, err = f.svc.Checkin(context.Background(), f.admin, Request{GuestID: f.guest7.ID})
	assert.NoError(t, err)
}

func TestCheckin_Scoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("super admin requires stadium", func(t *testing.T) {
		_, err := f.svc.Checkin(ctx, f.super, Request{GuestID: f.guest5.ID})
		assert.True(t, apperr.IsCode(err, apperr.CodeStadiumRequired), "got %v", err)
	})

	t.Run("super admin with stadium", func(t *testing.T) {
		_, err := f.svc.Checkin(ctx, f.super, Request{GuestID: f.guest5.ID, StadiumID: f.stadium.ID})
		assert.NoError(t, err)
	})

	t.Run("guest of another stadium is not found", func(t *testing.T) {
		other := dbtest.Stadium(t, f.db, "Maradona")
		room := dbtest.Room(t, f.db, other.ID, "Lounge")
		guest := dbtest.Guest(t, f.db, other.ID, room.ID, "Ciro", "Esposito")

		_, err := f.svc.Checkin(ctx, f.admin, Request{GuestID: guest.ID})
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound), "got %v", err)
	})

	t.Run("admin naming another stadium", func(t *testing.T) {
		_, err := f.svc.Checkin(ctx, f.admin, Request{GuestID: f.guest7.ID, StadiumID: "elsewhere"})
		assert.True(t, apperr.IsCode(err, apperr.CodeCrossTenantAccess), "got %v", err)
	})

	t.Run("unknown guest", func(t *testing.T) {
		_, err := f.svc.Checkin(ctx, f.admin, Request{GuestID: "missing"})
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound), "got %v", err)
	})
}

func TestClassifyUserAgent(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", DeviceUnknown},
		{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile/15E148", DeviceMobile},
		{"Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile Safari/537.36", DeviceMobile},
		{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", DeviceTablet},
		{"Mozilla/5.0 (Linux; Android 13; SM-X700) Safari/537.36", DeviceTablet},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64)", DeviceDesktop},
		{"curl/8.4.0", DeviceUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyUserAgent(tt.ua), tt.ua)
	}

	assert.Equal(t, DeviceTablet, NormalizeDevice("Tablet", ""))
	assert.Equal(t, DeviceDesktop, NormalizeDevice("fridge", "Mozilla/5.0 (X11; Linux x86_64)"))
}
