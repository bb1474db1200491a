package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/educacao-adventista/matriculometro/internal/config"
	"github.com/educacao-adventista/matriculometro/internal/db"
	"github.com/educacao-adventista/matriculometro/internal/logger"
)

func MigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(false)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(true)
		},
	})

	return migrateCmd
}

func runMigrate(down bool) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close(database)

	if down {
		return db.MigrateDown(database.DB, cfg.DBDriver)
	}
	return db.RunMigrations(database.DB, cfg.DBDriver)
}
