package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Guest is a hospitality guest. UpdatedAt doubles as the optimistic lock
// version: every write must match the stored value and replaces it.
type Guest struct {
	bun.BaseModel `bun:"table:guests,alias:g"`

	ID          string    `bun:"id,pk"`
	StadiumID   string    `bun:"stadium_id,notnull"` // FK to stadiums(id)
	RoomID      string    `bun:"room_id,notnull"`    // FK to rooms(id)
	FirstName   string    `bun:"first_name,notnull"`
	LastName    string    `bun:"last_name,notnull"`
	CompanyName string    `bun:"company_name"`
	Email       string    `bun:"email"`
	Phone       string    `bun:"phone"`
	VIPLevel    string    `bun:"vip_level,notnull,default:'standard'"`
	TableNumber string    `bun:"table_number"`
	Notes       string    `bun:"notes"`
	IsActive    bool      `bun:"is_active,notnull"`
	CreatedAt   time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Version returns the optimistic lock token.
func (g *Guest) Version() time.Time { return g.UpdatedAt }

// SetVersion replaces the optimistic lock token.
func (g *Guest) SetVersion(v time.Time) { g.UpdatedAt = v }

// VIP levels accepted on guest records.
const (
	VIPLevelStandard = "standard"
	VIPLevelPremium  = "premium"
	VIPLevelVIP      = "vip"
	VIPLevelUltraVIP = "ultra_vip"
)

// ValidVIPLevel reports whether level is accepted.
func ValidVIPLevel(level string) bool {
	switch level {
	case VIPLevelStandard, VIPLevelPremium, VIPLevelVIP, VIPLevelUltraVIP:
		return true
	}
	return false
}

// AccessType is the kind of presence event.
type AccessType string

const (
	AccessEntry AccessType = "entry"
	AccessExit  AccessType = "exit"
)

// AccessEvent is one row of the append-only presence log. Rows are never
// updated or deleted.
type AccessEvent struct {
	bun.BaseModel `bun:"table:guest_accesses,alias:ga"`

	ID         int64      `bun:"id,pk,autoincrement"`
	GuestID    string     `bun:"guest_id,notnull"`   // FK to guests(id)
	HostessID  string     `bun:"hostess_id,notnull"` // FK to users(id)
	StadiumID  string     `bun:"stadium_id,notnull"`
	AccessType AccessType `bun:"access_type,notnull"`
	AccessTime time.Time  `bun:"access_time,notnull"`
	DeviceType string     `bun:"device_type,notnull,default:'unknown'"`
}

// RoomAssignment grants a hostess access to the guests of a room.
type RoomAssignment struct {
	bun.BaseModel `bun:"table:hostess_rooms,alias:hr"`

	HostessID  string    `bun:"hostess_id,pk"` // FK to users(id)
	RoomID     string    `bun:"room_id,pk"`    // FK to rooms(id)
	Active     bool      `bun:"active,notnull"`
	AssignedAt time.Time `bun:"assigned_at,notnull,default:current_timestamp"`
}
