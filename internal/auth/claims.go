package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// Claims is the JWT payload for both token types. Refresh tokens carry no
// permission snapshot.
type Claims struct {
	jwt.RegisteredClaims
	UserID      string    `json:"user_id"`
	Username    string    `json:"username,omitempty"`
	StadiumID   *string   `json:"stadium_id"`
	Role        Role      `json:"role"`
	Permissions []string  `json:"permissions,omitempty"`
	Type        TokenType `json:"typ"`
}

// Stadium returns the stadium claim or "" when absent.
func (c *Claims) Stadium() string {
	if c.StadiumID == nil {
		return ""
	}
	return *c.StadiumID
}
