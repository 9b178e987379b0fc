package main

import (
	"fmt"
	"os"

	"github.com/campusmarket/campusmarket-backend/config"
	"github.com/campusmarket/campusmarket-backend/internal/db"
	"github.com/campusmarket/campusmarket-backend/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "campusctl",
	Short:         "Operator tooling for the campus marketplace",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(importListingsCmd)
	rootCmd.AddCommand(promoteCmd)
	rootCmd.AddCommand(eventsCmd)
}

// bootDB loads config and opens the database connection.
func bootDB() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := db.Initialize(&cfg.Database); err != nil {
		return nil, err
	}
	return cfg, nil
}
