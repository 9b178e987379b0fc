package main

import (
	"fmt"

	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/campusmarket/campusmarket-backend/pkg/util"
	"github.com/spf13/cobra"
)

// campusctl migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update every table",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := bootDB(); err != nil {
			return err
		}
		defer db.Close()
		return db.Migrate(db.GetDB())
	},
}

var seedOwner string

// campusctl seed --owner someone@campus.edu
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert a demo vendor and listings into an empty database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if util.EmailDomain(seedOwner) == "" {
			return fmt.Errorf("--owner must be an email address, got %q", seedOwner)
		}
		if _, err := bootDB(); err != nil {
			return err
		}
		defer db.Close()

		if err := db.Migrate(db.GetDB()); err != nil {
			return err
		}
		return db.Seed(db.GetDB(), util.NormalizeEmail(seedOwner))
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedOwner, "owner", "", "email of the demo vendor's owner")
	_ = seedCmd.MarkFlagRequired("owner")
}
