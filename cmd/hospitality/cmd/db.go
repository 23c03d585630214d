package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	"github.com/bitandsolution/stadium-hospitality-sub000/cmd/hospitality/cmd/cmdutil"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/migrations"
)

var seedPassword string

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  `Commands for managing database migrations and schema.`,
}

// withMigrator opens the configured database and hands fn a migrator bound to it.
func withMigrator(fn func(*bun.DB, *migrate.Migrator) error) error {
	db, err := cmdutil.OpenDB(cfg)
	if err != nil {
		return err
	}
	defer bunx.Close(db)
	return fn(db, migrate.NewMigrator(db, migrations.Migrations))
}

// locked runs fn while holding the migration lock.
func locked(ctx context.Context, migrator *migrate.Migrator, fn func() error) error {
	if err := migrator.Lock(ctx); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer func() {
		if err := migrator.Unlock(ctx); err != nil {
			logger.WithError(err).Warn("failed to release migration lock")
		}
	}()
	return fn()
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize migration tables",
	Long:  `Creates the migration tracking tables in the database. Run this once during initial setup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(func(_ *bun.DB, migrator *migrate.Migrator) error {
			if err := migrator.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			logger.Info("migration tables initialized")
			return nil
		})
	},
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long:  `Applies all pending migrations to the database with locking to prevent concurrent migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(func(_ *bun.DB, migrator *migrate.Migrator) error {
			// Init is idempotent and lets a fresh database migrate in one step.
			if err := migrator.Init(ctx); err != nil {
				return fmt.Errorf("failed to initialize migrator: %w", err)
			}
			return locked(ctx, migrator, func() error {
				group, err := migrator.Migrate(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				if group.IsZero() {
					logger.Info("no new migrations to apply")
				} else {
					logger.WithField("group", group.ID).Infof("applied migration group: %s", group)
				}
				return nil
			})
		})
	},
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  `Displays the current migration status and pending migrations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(func(_ *bun.DB, migrator *migrate.Migrator) error {
			ms, err := migrator.MigrationsWithStatus(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Migrations:")
			for _, m := range ms {
				status := "pending"
				if m.GroupID > 0 {
					status = fmt.Sprintf("applied (group %d)", m.GroupID)
				}
				fmt.Fprintf(out, "  %s: %s\n", m.Name, status)
			}
			return nil
		})
	},
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Rollback last migration group",
	Long:  `Rolls back the most recently applied migration group with locking to prevent concurrent operations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(func(_ *bun.DB, migrator *migrate.Migrator) error {
			return locked(ctx, migrator, func() error {
				group, err := migrator.Rollback(ctx)
				if err != nil {
					return fmt.Errorf("rollback failed: %w", err)
				}
				if group.IsZero() {
					logger.Info("no migrations to rollback")
				} else {
					logger.WithField("group", group.ID).Infof("rolled back migration group: %s", group)
				}
				return nil
			})
		})
	},
}

var dbUnlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Force release migration lock",
	Long:  `Force releases the migration lock. Use this if a migration crashed while holding the lock.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withMigrator(func(_ *bun.DB, migrator *migrate.Migrator) error {
			if err := migrator.Unlock(ctx); err != nil {
				return fmt.Errorf("failed to release migration lock: %w", err)
			}
			logger.Info("migration lock released")
			return nil
		})
	},
}

var dbSeedDevCmd = &cobra.Command{
	Use:   "seed-dev",
	Short: "Insert a demo stadium for local development",
	Long: `Creates one stadium with two rooms, an admin, two hostesses and a handful
of guests. Every seeded user gets the same password. Run after 'db migrate'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(seedPassword) < 8 {
			return fmt.Errorf("--password must be at least 8 characters")
		}
		ctx := cmd.Context()
		return withMigrator(func(db *bun.DB, _ *migrate.Migrator) error {
			res, err := seedDev(ctx, db, seedPassword)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Stadium: %s (%s)\n", res.Stadium.Name, res.Stadium.ID)
			for _, u := range res.Users {
				fmt.Fprintf(out, "  user %-16s %-14s %s\n", u.Username, u.Role, u.ID)
			}
			fmt.Fprintf(out, "  %d guests\n", len(res.Guests))
			return nil
		})
	},
}

func init() {
	dbSeedDevCmd.Flags().StringVar(&seedPassword, "password", "hospitality-dev", "Password for every seeded user")

	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbRollbackCmd)
	dbCmd.AddCommand(dbUnlockCmd)
	dbCmd.AddCommand(dbSeedDevCmd)
}
