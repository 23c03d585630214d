package auth

import "fmt"

// Role is the closed set of principal roles.
type Role string

const (
	RoleSuperAdmin   Role = "super_admin"
	RoleStadiumAdmin Role = "stadium_admin"
	RoleHostess      Role = "hostess"
)

// AllRoles lists every role, highest rank first.
func AllRoles() []Role {
	return []Role{RoleSuperAdmin, RoleStadiumAdmin, RoleHostess}
}

// ParseRole converts a stored or user-supplied value into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Valid reports whether r is one of the defined roles.
func (r Role) Valid() bool {
	return r.Rank() > 0
}

// Rank orders roles: super_admin > stadium_admin > hostess. Unknown roles rank 0.
func (r Role) Rank() int {
	switch r {
	case RoleSuperAdmin:
		return 3
	case RoleStadiumAdmin:
		return 2
	case RoleHostess:
		return 1
	}
	return 0
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return r.Valid() && r.Rank() >= min.Rank()
}

// RequiresStadium reports whether principals with this role are bound to one stadium.
func (r Role) RequiresStadium() bool {
	switch r {
	case RoleSuperAdmin:
		return false
	case RoleStadiumAdmin, RoleHostess:
		return true
	}
	return true
}

// inherits returns the role whose capabilities r includes.
func (r Role) inherits() (Role, bool) {
	switch r {
	case RoleSuperAdmin:
		return RoleStadiumAdmin, true
	case RoleStadiumAdmin:
		return RoleHostess, true
	case RoleHostess:
		return "", false
	}
	return "", false
}

// grants returns the permissions r adds on top of the role it inherits.
func (r Role) grants() []string {
	switch r {
	case RoleSuperAdmin:
		return []string{StadiumCrossTenant, BlacklistPurge}
	case RoleStadiumAdmin:
		return []string{GuestMoveRoom, SessionRevokeAny}
	case RoleHostess:
		return []string{GuestRead, GuestUpdate, CheckinWrite, AccessHistoryRead}
	}
	return nil
}

// Capabilities returns the full permission set of r including inherited ones.
// The result is a fresh slice and is what gets snapshotted into access tokens.
func (r Role) Capabilities() []string {
	var perms []string
	for role, ok := r, r.Valid(); ok; role, ok = role.inherits() {
		perms = append(perms, role.grants()...)
	}
	return perms
}
