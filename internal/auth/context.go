package auth

import (
	"context"
	"slices"
	"time"
)

// Principal is the authenticated actor of a request. It is built from
// validated access token claims and never modified afterwards.
type Principal struct {
	UserID   string
	Username string
	Role     Role
	// StadiumID is empty only for super_admin.
	StadiumID   string
	Permissions []string

	// Session metadata from the access token.
	TokenID   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// PrincipalFromClaims converts validated claims into a Principal.
func PrincipalFromClaims(c *Claims) Principal {
	p := Principal{
		UserID:      c.UserID,
		Username:    c.Username,
		Role:        c.Role,
		StadiumID:   c.Stadium(),
		Permissions: slices.Clone(c.Permissions),
		TokenID:     c.ID,
	}
	if c.IssuedAt != nil {
		p.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		p.ExpiresAt = c.ExpiresAt.Time
	}
	return p
}

// HasPermission checks the token's permission snapshot.
func (p Principal) HasPermission(perm string) bool {
	return slices.Contains(p.Permissions, perm)
}

type principalContextKey struct{}

// SetPrincipal stores the authenticated principal on the context.
func SetPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext retrieves the authenticated principal from the context.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

type tokenContextKey struct{}

// SetToken stores the raw bearer token so logout can revoke it.
func SetToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenContextKey{}, token)
}

// TokenFromContext returns the raw bearer token of the request.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenContextKey{}).(string)
	return t, ok && t != ""
}
