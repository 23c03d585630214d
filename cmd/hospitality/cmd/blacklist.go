package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitandsolution/stadium-hospitality-sub000/cmd/hospitality/cmd/cmdutil"
)

var blacklistCmd = &cobra.Command{
	Use:   "blacklist",
	Short: "Token blacklist maintenance",
}

var blacklistPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired blacklist entries",
	Long: `Deletes revoked-token fingerprints whose tokens have expired. The server
runs this periodically; use the command for one-off maintenance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		bundle, err := cmdutil.NewTokenBundle(ctx, cfg, nil, logger)
		if err != nil {
			return err
		}
		defer bundle.Close()

		n, err := bundle.Tokens.CleanupExpired(ctx)
		if err != nil {
			return fmt.Errorf("purge blacklist: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purged %d expired entries (backend: %s)\n", n, cfg.Blacklist.Backend)
		return nil
	},
}

func init() {
	blacklistCmd.AddCommand(blacklistPurgeCmd)
}
