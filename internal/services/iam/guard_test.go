package iam

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
)

// mockRoomAssignments is a hand-written RoomAssignmentRepository fake.
type mockRoomAssignments struct {
	assigned map[string][]string
	err      error
}

func (m *mockRoomAssignments) IsAssigned(_ context.Context, hostessID, roomID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	for _, r := range m.assigned[hostessID] {
		if r == roomID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRoomAssignments) ActiveRooms(_ context.Context, hostessID string) ([]string, error) {
	return m.assigned[hostessID], m.err
}

func (m *mockRoomAssignments) Assign(context.Context, string, string) error     { return nil }
func (m *mockRoomAssignments) Deactivate(context.Context, string, string) error { return nil }

func principal(role auth.Role, stadium string) auth.Principal {
	return auth.Principal{
		UserID:      "user-" + string(role),
		Role:        role,
		StadiumID:   stadium,
		Permissions: role.Capabilities(),
	}
}

func newGuard(t *testing.T, rooms *mockRoomAssignments) *AccessGuard {
	t.Helper()
	enforcer, err := auth.InitEnforcer()
	require.NoError(t, err)
	if rooms == nil {
		rooms = &mockRoomAssignments{}
	}
	return NewAccessGuard(enforcer, rooms)
}

func TestScopeFor(t *testing.T) {
	g := newGuard(t, nil)

	tests := []struct {
		name      string
		principal auth.Principal
		requested string
		want      string
		wantCode  apperr.Code
	}{
		{"super admin explicit", principal(auth.RoleSuperAdmin, ""), "s-2", "s-2", ""},
		{"super admin missing", principal(auth.RoleSuperAdmin, ""), "", "", apperr.CodeStadiumRequired},
		{"admin own implicit", principal(auth.RoleStadiumAdmin, "s-1"), "", "s-1", ""},
		{"admin own explicit", principal(auth.RoleStadiumAdmin, "s-1"), "s-1", "s-1", ""},
		{"admin other", principal(auth.RoleStadiumAdmin, "s-1"), "s-2", "", apperr.CodeCrossTenantAccess},
		{"hostess own", principal(auth.RoleHostess, "s-1"), "", "s-1", ""},
		{"hostess other", principal(auth.RoleHostess, "s-1"), "s-2", "", apperr.CodeCrossTenantAccess},
		{"unknown role", principal(auth.Role("manager"), "s-1"), "", "", apperr.CodeInsufficientRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := g.ScopeFor(tt.principal, tt.requested)
			if tt.wantCode != "" {
				assert.True(t, apperr.IsCode(err, tt.wantCode), "got %v", err)
				assert.Empty(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScopeFor_StadiumRequiredIsValidation(t *testing.T) {
	g := newGuard(t, nil)
	_, err := g.ScopeFor(principal(auth.RoleSuperAdmin, ""), "")
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestRequireRole(t *testing.T) {
	g := newGuard(t, nil)

	assert.NoError(t, g.RequireRole(principal(auth.RoleSuperAdmin, ""), auth.RoleStadiumAdmin))
	assert.NoError(t, g.RequireRole(principal(auth.RoleStadiumAdmin, "s-1"), auth.RoleStadiumAdmin))

	err := g.RequireRole(principal(auth.RoleHostess, "s-1"), auth.RoleStadiumAdmin)
	assert.True(t, apperr.IsCode(err, apperr.CodeInsufficientRole))
	assert.Equal(t, apperr.KindAuthorization, apperr.KindOf(err))
}

func TestRequirePermission(t *testing.T) {
	g := newGuard(t, nil)

	assert.NoError(t, g.RequirePermission(principal(auth.RoleHostess, "s-1"), auth.CheckinWrite))
	assert.NoError(t, g.RequirePermission(principal(auth.RoleSuperAdmin, ""), auth.CheckinWrite))

	err := g.RequirePermission(principal(auth.RoleHostess, "s-1"), auth.GuestMoveRoom)
	assert.True(t, apperr.IsCode(err, apperr.CodeInsufficientRole))

	// a snapshot claiming more than the role grants is still denied
	forged := principal(auth.RoleHostess, "s-1")
	forged.Permissions = append(forged.Permissions, auth.BlacklistPurge)
	err = g.RequirePermission(forged, auth.BlacklistPurge)
	assert.True(t, apperr.IsCode(err, apperr.CodeInsufficientRole))

	// a stale snapshot without the permission is denied
	stale := principal(auth.RoleStadiumAdmin, "s-1")
	stale.Permissions = []string{auth.GuestRead}
	err = g.RequirePermission(stale, auth.GuestMoveRoom)
	assert.True(t, apperr.IsCode(err, apperr.CodeInsufficientRole))
}

func TestCanActOnRoom(t *testing.T) {
	rooms := &mockRoomAssignments{assigned: map[string][]string{
		"user-hostess": {"room-5"},
	}}
	g := newGuard(t, rooms)
	ctx := context.Background()

	hostess := principal(auth.RoleHostess, "s-1")
	assert.NoError(t, g.CanActOnRoom(ctx, hostess, "room-5"))

	err := g.CanActOnRoom(ctx, hostess, "room-7")
	assert.True(t, apperr.IsCode(err, apperr.CodeRoomNotAssigned))

	assert.NoError(t, g.CanActOnRoom(ctx, principal(auth.RoleStadiumAdmin, "s-1"), "room-7"))
	assert.NoError(t, g.CanActOnRoom(ctx, principal(auth.RoleSuperAdmin, ""), "room-7"))

	rooms.err = errors.New("db down")
	err = g.CanActOnRoom(ctx, hostess, "room-5")
	assert.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}
