package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260901000001, down_20260901000001)
}

type tableSpec struct {
	name        string
	model       any
	foreignKeys []string
	indexes     []string
}

func initTables() []tableSpec {
	return []tableSpec{
		{
			name:  "stadiums",
			model: (*models.Stadium)(nil),
		},
		{
			name:        "rooms",
			model:       (*models.Room)(nil),
			foreignKeys: []string{`("stadium_id") REFERENCES "stadiums" ("id") ON DELETE CASCADE`},
			indexes:     []string{`CREATE INDEX IF NOT EXISTS idx_rooms_stadium ON rooms(stadium_id)`},
		},
		{
			name:        "users",
			model:       (*models.User)(nil),
			foreignKeys: []string{`("stadium_id") REFERENCES "stadiums" ("id") ON DELETE SET NULL`},
			indexes:     []string{`CREATE INDEX IF NOT EXISTS idx_users_stadium ON users(stadium_id)`},
		},
		{
			name:  "guests",
			model: (*models.Guest)(nil),
			foreignKeys: []string{
				`("stadium_id") REFERENCES "stadiums" ("id") ON DELETE CASCADE`,
				`("room_id") REFERENCES "rooms" ("id")`,
			},
			indexes: []string{
				`CREATE INDEX IF NOT EXISTS idx_guests_stadium_room ON guests(stadium_id, room_id)`,
			},
		},
		{
			name:  "hostess_rooms",
			model: (*models.RoomAssignment)(nil),
			foreignKeys: []string{
				`("hostess_id") REFERENCES "users" ("id") ON DELETE CASCADE`,
				`("room_id") REFERENCES "rooms" ("id") ON DELETE CASCADE`,
			},
		},
		{
			name:  "guest_accesses",
			model: (*models.AccessEvent)(nil),
			foreignKeys: []string{
				`("guest_id") REFERENCES "guests" ("id") ON DELETE CASCADE`,
				`("hostess_id") REFERENCES "users" ("id")`,
			},
			indexes: []string{
				// latest-event lookup per guest
				`CREATE INDEX IF NOT EXISTS idx_guest_accesses_guest_id ON guest_accesses(guest_id, id)`,
				`CREATE INDEX IF NOT EXISTS idx_guest_accesses_stadium_time ON guest_accesses(stadium_id, access_time)`,
			},
		},
	}
}

// up_20260901000001 creates tenant, user, guest and presence tables
func up_20260901000001(ctx context.Context, db *bun.DB) error {
	for _, t := range initTables() {
		fmt.Printf(" [up] creating %s table...", t.name)

		q := db.NewCreateTable().Model(t.model).IfNotExists()
		for _, fk := range t.foreignKeys {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}

		for _, idx := range t.indexes {
			if _, err := db.ExecContext(ctx, idx); err != nil {
				return fmt.Errorf("failed to create index on %s: %w", t.name, err)
			}
		}
		fmt.Println(" OK")
	}
	return nil
}

// down_20260901000001 drops the tables in reverse dependency order
func down_20260901000001(ctx context.Context, db *bun.DB) error {
	tables := initTables()
	for i := len(tables) - 1; i >= 0; i-- {
		t := tables[i]
		fmt.Printf(" [down] dropping %s table...", t.name)
		if _, err := db.NewDropTable().Model(t.model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop %s table: %w", t.name, err)
		}
		fmt.Println(" OK")
	}
	return nil
}
