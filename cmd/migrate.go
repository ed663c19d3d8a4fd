package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"userapi/gates/storage"
	"userapi/iternal/config"
	"userapi/iternal/logger"
)

func newMigrateCmd(configPath *string) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the users table schema",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Create the schema if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad(*configPath)
			log := logger.MustInitLogger(cfg)
			db, err := storage.Open(cmd.Context(), cfg.DB, log)
			if err != nil {
				return err
			}
			defer db.Close()
			return storage.Migrate(cmd.Context(), db)
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad(*configPath)
			log := logger.MustInitLogger(cfg)
			db, err := storage.Open(cmd.Context(), cfg.DB, log)
			if err != nil {
				return err
			}
			defer db.Close()
			v, err := storage.MigrationVersion(cmd.Context(), db)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v)
			return nil
		},
	})
	return migrate
}
