package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
)

func init() {
	Migrations.MustRegister(up_20260901000002, down_20260901000002)
}

// up_20260901000002 creates token_blacklist table for JWT revocation
func up_20260901000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [up] creating token_blacklist table...")

	_, err := db.NewCreateTable().
		Model((*models.BlacklistEntry)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create token_blacklist table: %w", err)
	}

	// Cleanup scans by expiry
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_token_blacklist_expires_at ON token_blacklist(expires_at)`)
	if err != nil {
		return fmt.Errorf("failed to create token_blacklist expires_at index: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_token_blacklist_user ON token_blacklist(user_id)`)
	if err != nil {
		return fmt.Errorf("failed to create token_blacklist user index: %w", err)
	}
	fmt.Println(" OK")

	return nil
}

// down_20260901000002 drops token_blacklist table
func down_20260901000002(ctx context.Context, db *bun.DB) error {
	fmt.Print(" [down] dropping token_blacklist table...")

	_, err := db.NewDropTable().
		Model((*models.BlacklistEntry)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop token_blacklist table: %w", err)
	}
	fmt.Println(" OK")

	return nil
}
