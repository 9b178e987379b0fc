package main

import (
	"fmt"

	"github.com/campusmarket/campusmarket-backend/internal/app/model"
	"github.com/campusmarket/campusmarket-backend/internal/app/repository"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"github.com/spf13/cobra"
)

var demote bool

// campusctl promote dean@campus.edu
var promoteCmd = &cobra.Command{
	Use:   "promote <email>",
	Short: "Grant (or with --demote, revoke) the admin role",
	Long: `Changes the stored role of an existing user. Addresses listed in ADMIN_EMAILS
are re-promoted on their next sign-in regardless of this command.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootDB(); err != nil {
			return err
		}
		defer db.Close()

		role := model.RoleAdmin
		if demote {
			role = model.RoleUser
		}
		email := util.NormalizeEmail(args[0])
		if err := setRole(repository.NewUserRepository(db.GetDB()), email, role); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", email, role)
		return nil
	},
}

func init() {
	promoteCmd.Flags().BoolVar(&demote, "demote", false, "set the role back to user")
}

func setRole(users repository.UserRepository, email string, role model.UserRole) error {
	user, err := users.FindByEmail(email)
	if err != nil {
		return fmt.Errorf("user %s: %w", email, err)
	}
	if user.Role == role {
		return nil
	}
	return users.UpdateRole(user.ID, role)
}
