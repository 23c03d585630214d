package iam

import (
	"context"
	"fmt"

	"github.com/casbin/casbin/v2"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
)

// AccessGuard scopes requests to a stadium and checks role capabilities.
// It holds no mutable state; the enforcer is read-only after construction.
type AccessGuard struct {
	enforcer casbin.IEnforcer
	rooms    repository.RoomAssignmentRepository
}

// NewAccessGuard creates a guard backed by the given enforcer and room assignments.
func NewAccessGuard(enforcer casbin.IEnforcer, rooms repository.RoomAssignmentRepository) *AccessGuard {
	return &AccessGuard{enforcer: enforcer, rooms: rooms}
}

// ScopeFor returns the stadium the request may act on.
//
// A super_admin must name a stadium explicitly and gets it unchanged. Every
// other role is pinned to its own stadium: an empty request resolves to it,
// a different one is CROSS_TENANT_ACCESS.
func (g *AccessGuard) ScopeFor(p auth.Principal, requested string) (string, error) {
	switch p.Role {
	case auth.RoleSuperAdmin:
		if requested == "" {
			return "", apperr.New(apperr.CodeStadiumRequired, "super admin requests must specify a stadium")
		}
		return requested, nil
	case auth.RoleStadiumAdmin, auth.RoleHostess:
		if p.StadiumID == "" {
			return "", apperr.New(apperr.CodeInvalidToken, "principal has no stadium")
		}
		if requested != "" && requested != p.StadiumID {
			return "", apperr.New(apperr.CodeCrossTenantAccess, "access to stadium %s denied", requested).
				WithDetail("stadium_id", requested)
		}
		return p.StadiumID, nil
	}
	return "", apperr.New(apperr.CodeInsufficientRole, "unknown role %q", p.Role)
}

// RequireRole fails with INSUFFICIENT_ROLE when p ranks below min.
func (g *AccessGuard) RequireRole(p auth.Principal, min auth.Role) error {
	if !p.Role.AtLeast(min) {
		return apperr.New(apperr.CodeInsufficientRole, "role %s required", min).
			WithDetail("required_role", min.String())
	}
	return nil
}

// RequirePermission checks perm against both the token's permission
// snapshot and the role policy. Either one missing denies.
func (g *AccessGuard) RequirePermission(p auth.Principal, perm string) error {
	if !p.HasPermission(perm) {
		return apperr.New(apperr.CodeInsufficientRole, "permission %s required", perm).
			WithDetail("permission", perm)
	}
	allowed, err := g.enforcer.Enforce(p.Role.String(), perm)
	if err != nil {
		return fmt.Errorf("enforce %s: %w", perm, err)
	}
	if !allowed {
		return apperr.New(apperr.CodeInsufficientRole, "permission %s required", perm).
			WithDetail("permission", perm)
	}
	return nil
}

// CanActOnRoom fails with ROOM_NOT_ASSIGNED when a hostess has no active
// assignment to roomID. Admins pass unconditionally.
func (g *AccessGuard) CanActOnRoom(ctx context.Context, p auth.Principal, roomID string) error {
	switch p.Role {
	case auth.RoleSuperAdmin, auth.RoleStadiumAdmin:
		return nil
	case auth.RoleHostess:
		ok, err := g.rooms.IsAssigned(ctx, p.UserID, roomID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.New(apperr.CodeRoomNotAssigned, "room %s is not assigned to you", roomID).
				WithDetail("room_id", roomID)
		}
		return nil
	}
	return apperr.New(apperr.CodeInsufficientRole, "unknown role %q", p.Role)
}
