package users

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/cmd/hospitality/cmd/cmdutil"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/config"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/bunx"
)

// UsersCmd is the parent command for user management operations
var UsersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage staff accounts",
	Long:  `Commands for creating staff accounts and managing hostess room assignments directly against the database.`,
}

func init() {
	createCmd.Flags().StringVar(&usernameFlag, "username", "", "Login name of the user")
	createCmd.Flags().StringVar(&passwordFlag, "password", "", "Password for the user (use --stdin to avoid shell history)")
	createCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password flag")
	createCmd.Flags().StringVar(&roleFlag, "role", "", "Role: super_admin, stadium_admin or hostess")
	createCmd.Flags().StringVar(&stadiumFlag, "stadium", "", "Stadium id (required for stadium_admin and hostess)")
	createCmd.Flags().StringVar(&fullNameFlag, "full-name", "", "Display name")

	for _, c := range []*cobra.Command{assignCmd, unassignCmd} {
		c.Flags().StringVar(&usernameFlag, "username", "", "Hostess login name")
		c.Flags().StringVar(&roomFlag, "room", "", "Room id")
	}

	UsersCmd.AddCommand(createCmd)
	UsersCmd.AddCommand(assignCmd)
	UsersCmd.AddCommand(unassignCmd)
}

// withDB loads the configuration and opens the database for fn.
func withDB(fn func(db *bun.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	db, err := cmdutil.OpenDB(cfg)
	if err != nil {
		return err
	}
	defer bunx.Close(db)
	return fn(db)
}
