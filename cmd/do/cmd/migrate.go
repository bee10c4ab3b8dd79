package cmd

import (
	"database/sql"
	"fmt"

	"github.com/filesmanager/filesmanager/internal/config"
	"github.com/filesmanager/filesmanager/internal/db"
	"github.com/filesmanager/filesmanager/internal/logger"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(db.RunMigrations)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(db.MigrateDown)
		},
	})

	return cmd
}

func runMigration(migrate func(*sql.DB, string) error) error {
	cfg := config.Load()
	logger.Init(cfg.IsDevelopment(), "", "do")

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	return migrate(database.DB, cfg.DBDriver)
}
