package iam

import (
	"context"
	"net/http"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
)

// Authenticator validates request credentials and returns a Principal.
//
// Return values:
//   - (principal, nil): authentication successful
//   - (nil, nil): credentials not present
//   - (nil, error): credentials present but invalid
type Authenticator interface {
	Authenticate(ctx context.Context, req AuthRequest) (*auth.Principal, error)
}

// AuthRequest wraps the request data an authenticator needs.
type AuthRequest struct {
	Headers http.Header
}

// JWTAuthenticator validates bearer access tokens through the TokenService,
// so every request consults the blacklist.
type JWTAuthenticator struct {
	tokens *TokenService
}

// NewJWTAuthenticator creates a bearer token authenticator.
func NewJWTAuthenticator(tokens *TokenService) *JWTAuthenticator {
	return &JWTAuthenticator{tokens: tokens}
}

func (a *JWTAuthenticator) Authenticate(ctx context.Context, req AuthRequest) (*auth.Principal, error) {
	token, ok := auth.BearerToken(&http.Request{Header: req.Headers})
	if !ok {
		return nil, nil
	}

	claims, err := a.tokens.Validate(ctx, token, auth.TokenTypeAccess)
	if err != nil {
		return nil, err
	}

	principal := auth.PrincipalFromClaims(claims)
	return &principal, nil
}
