package users

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/auth"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/db/models"
	"github.com/bitandsolution/stadium-hospitality-sub000/internal/repository"
)

const (
	passwordCost      = 12
	minPasswordLength = 8
)

var (
	usernameFlag string
	passwordFlag string
	stdinFlag    bool
	roleFlag     string
	stadiumFlag  string
	fullNameFlag string
)

type createInput struct {
	Username  string
	Password  string
	Role      string
	StadiumID string
	FullName  string
	cost      int
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a staff account",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := passwordFlag
		if stdinFlag {
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprint(cmd.ErrOrStderr(), "Enter password: ")
			if scanner.Scan() {
				password = scanner.Text()
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
		}

		in := createInput{
			Username:  usernameFlag,
			Password:  password,
			Role:      roleFlag,
			StadiumID: stadiumFlag,
			FullName:  fullNameFlag,
		}
		return withDB(func(db *bun.DB) error {
			user, err := createUser(cmd.Context(), db, in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "User created successfully")
			fmt.Fprintf(out, "  ID:       %s\n", user.ID)
			fmt.Fprintf(out, "  Username: %s\n", user.Username)
			fmt.Fprintf(out, "  Role:     %s\n", user.Role)
			if s := user.Stadium(); s != "" {
				fmt.Fprintf(out, "  Stadium:  %s\n", s)
			}
			return nil
		})
	},
}

func createUser(ctx context.Context, db bun.IDB, in createInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	if in.Username == "" {
		return nil, fmt.Errorf("--username flag is required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("password must be at least %d characters (use --password or --stdin)", minPasswordLength)
	}
	role, err := auth.ParseRole(in.Role)
	if err != nil {
		return nil, fmt.Errorf("%w; valid roles are %s, %s, %s", err, auth.RoleSuperAdmin, auth.RoleStadiumAdmin, auth.RoleHostess)
	}

	user := &models.User{
		Username: in.Username,
		FullName: in.FullName,
		Role:     role,
		IsActive: true,
	}

	switch {
	case role.RequiresStadium() && in.StadiumID == "":
		return nil, fmt.Errorf("--stadium is required for role %s", role)
	case !role.RequiresStadium() && in.StadiumID != "":
		return nil, fmt.Errorf("role %s is not bound to a stadium; omit --stadium", role)
	case in.StadiumID != "":
		if _, err := repository.NewBunStadiumRepository(db).GetByID(ctx, in.StadiumID); err != nil {
			return nil, fmt.Errorf("failed to resolve stadium: %w", err)
		}
		stadiumID := in.StadiumID
		user.StadiumID = &stadiumID
	}

	cost := in.cost
	if cost == 0 {
		cost = passwordCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashed)

	if err := repository.NewBunUserRepository(db).Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
