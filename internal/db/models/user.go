package models

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
)

// Stadium is a tenant.
type Stadium struct {
	bun.BaseModel `bun:"table:stadiums,alias:s"`

	ID        string    `bun:"id,pk"`
	Name      string    `bun:"name,notnull"`
	City      string    `bun:"city"`
	IsActive  bool      `bun:"is_active,notnull"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Room is a hospitality area inside a stadium.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID        string    `bun:"id,pk"`
	StadiumID string    `bun:"stadium_id,notnull"` // FK to stadiums(id)
	Name      string    `bun:"name,notnull"`
	Capacity  int       `bun:"capacity,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// User is a login principal. StadiumID is nil only for super admins.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           string     `bun:"id,pk"`
	Username     string     `bun:"username,notnull,unique"`
	PasswordHash string     `bun:"password_hash,notnull"` // bcrypt
	FullName     string     `bun:"full_name"`
	Role         auth.Role  `bun:"role,notnull"`
	StadiumID    *string    `bun:"stadium_id"` // FK to stadiums(id), nullable
	IsActive     bool       `bun:"is_active,notnull"`
	CreatedAt    time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	LastLoginAt  *time.Time `bun:"last_login_at"`
}

// Stadium returns the user's stadium id or "".
func (u *User) Stadium() string {
	if u == nil || u.StadiumID == nil {
		return ""
	}
	return *u.StadiumID
}
