package users

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
)

var roomFlag string

var assignCmd = &cobra.Command{
	Use:   "assign",
	Short: "Assign a hostess to a room",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *bun.DB) error {
			if err := setAssignment(cmd.Context(), db, usernameFlag, roomFlag, true); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to room %s\n", usernameFlag, roomFlag)
			return nil
		})
	},
}

var unassignCmd = &cobra.Command{
	Use:   "unassign",
	Short: "Remove a hostess from a room",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(func(db *bun.DB) error {
			if err := setAssignment(cmd.Context(), db, usernameFlag, roomFlag, false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from room %s\n", usernameFlag, roomFlag)
			return nil
		})
	},
}

// setAssignment activates or deactivates a hostess room assignment. The room
// must belong to the hostess's stadium.
func setAssignment(ctx context.Context, db bun.IDB, username, roomID string, active bool) error {
	if username == "" || roomID == "" {
		return fmt.Errorf("--username and --room are required")
	}
	user, err := repository.NewBunUserRepository(db).GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to resolve user: %w", err)
	}
	if user.Role != auth.RoleHostess {
		return fmt.Errorf("user %s has role %s; only hostesses have room assignments", username, user.Role)
	}
	room, err := repository.NewBunStadiumRepository(db).GetRoom(ctx, roomID)
	if err != nil {
		return fmt.Errorf("failed to resolve room: %w", err)
	}
	if room.StadiumID != user.Stadium() {
		return fmt.Errorf("room %s belongs to another stadium", roomID)
	}

	assignments := repository.NewBunRoomAssignmentRepository(db)
	if active {
		return assignments.Assign(ctx, user.ID, room.ID)
	}
	return assignments.Deactivate(ctx, user.ID, room.ID)
}
