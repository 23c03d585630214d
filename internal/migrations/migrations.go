// Package migrations holds the schema history applied by `hospitality db migrate`.
package migrations

import "github.com/uptrace/bun/migrate"

// Migrations is the registry every migration file adds itself to in init().
var Migrations = migrate.NewMigrations()
