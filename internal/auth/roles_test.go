package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	tests := []struct {
		role Role
		min  Role
		want bool
	}{
		{RoleSuperAdmin, RoleSuperAdmin, true},
		{RoleSuperAdmin, RoleHostess, true},
		{RoleStadiumAdmin, RoleSuperAdmin, false},
		{RoleStadiumAdmin, RoleStadiumAdmin, true},
		{RoleStadiumAdmin, RoleHostess, true},
		{RoleHostess, RoleStadiumAdmin, false},
		{RoleHostess, RoleHostess, true},
		{Role("manager"), RoleHostess, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+">="+string(tt.min), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.AtLeast(tt.min))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("hostess")
	require.NoError(t, err)
	assert.Equal(t, RoleHostess, r)

	_, err = ParseRole("HOSTESS")
	assert.Error(t, err)
}

func TestCapabilitiesInherit(t *testing.T) {
	hostess := RoleHostess.Capabilities()
	admin := RoleStadiumAdmin.Capabilities()
	super := RoleSuperAdmin.Capabilities()

	assert.ElementsMatch(t, []string{GuestRead, GuestUpdate, CheckinWrite, AccessHistoryRead}, hostess)
	assert.Subset(t, admin, hostess)
	assert.Contains(t, admin, GuestMoveRoom)
	assert.NotContains(t, admin, StadiumCrossTenant)
	assert.ElementsMatch(t, AllPermissions(), super)
	assert.Empty(t, Role("manager").Capabilities())
}

func TestEnforcerMatchesCapabilities(t *testing.T) {
	enforcer, err := InitEnforcer()
	require.NoError(t, err)

	for _, role := range AllRoles() {
		caps := role.Capabilities()
		for _, perm := range AllPermissions() {
			allowed, err := enforcer.Enforce(role.String(), perm)
			require.NoError(t, err)
			assert.Equal(t, contains(caps, perm), allowed, "%s %s", role, perm)
		}
	}

	allowed, err := enforcer.Enforce("manager", GuestRead)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
