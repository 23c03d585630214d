package models

import (
	"time"

	"github.com/uptrace/bun"
)

// BlacklistEntry records a token revoked before its natural expiry.
// The row is keyed by the token fingerprint; the raw token is never stored.
// ExpiresAt equals the token's own exp claim, after which the row may be pruned.
type BlacklistEntry struct {
	bun.BaseModel `bun:"table:token_blacklist,alias:tb"`

	TokenHash string    `bun:"token_hash,pk"`
	UserID    string    `bun:"user_id,notnull"`
	StadiumID *string   `bun:"stadium_id"`
	TokenType string    `bun:"token_type,notnull"`
	ExpiresAt time.Time `bun:"expires_at,notnull"`
	Reason    string    `bun:"reason,notnull"`
	RevokedAt time.Time `bun:"revoked_at,notnull,default:current_timestamp"`
}
