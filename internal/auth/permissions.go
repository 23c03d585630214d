package auth

// Permission constants checked by handlers and embedded in access tokens.

// Guest actions
const (
	// GuestRead allows reading guest records in scope
	GuestRead = "guest:read"

	// GuestUpdate allows editing guest fields with a version check
	GuestUpdate = "guest:update"

	// GuestMoveRoom allows changing a guest's room
	GuestMoveRoom = "guest:move-room"
)

// Presence actions
const (
	// CheckinWrite allows recording entry and exit events
	CheckinWrite = "checkin:write"

	// AccessHistoryRead allows reading a guest's access events
	AccessHistoryRead = "access-history:read"
)

// Admin actions
const (
	// SessionRevokeAny allows revoking tokens of other principals
	SessionRevokeAny = "session:revoke-any"

	// BlacklistPurge allows triggering blacklist cleanup
	BlacklistPurge = "admin:blacklist-purge"

	// StadiumCrossTenant allows acting on any stadium when one is supplied explicitly
	StadiumCrossTenant = "stadium:cross-tenant"
)

// AllPermissions lists every permission.
func AllPermissions() []string {
	return []string{
		GuestRead, GuestUpdate, GuestMoveRoom,
		CheckinWrite, AccessHistoryRead,
		SessionRevokeAny, BlacklistPurge, StadiumCrossTenant,
	}
}
