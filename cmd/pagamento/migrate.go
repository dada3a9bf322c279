package main

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/infrastructure/database"
)

func migrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer appLogger.Sync()
			return database.MigrateUp(cfg.DB, appLogger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			m, err := database.NewMigrator(cfg.DB)
			if err != nil {
				return err
			}
			defer database.CloseMigrator(m, appLogger)

			if steps > 0 {
				err = m.Steps(-steps)
			} else {
				err = m.Down()
			}
			if err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return fmt.Errorf("failed to roll back migrations: %w", err)
			}
			appLogger.Info("Database migrations rolled back", zap.Int("steps", steps))
			return nil
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back, 0 for all")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := bootstrap(*configPath)
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			m, err := database.NewMigrator(cfg.DB)
			if err != nil {
				return err
			}
			defer database.CloseMigrator(m, appLogger)

			version, dirty, err := m.Version()
			if errors.Is(err, migrate.ErrNilVersion) {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations applied")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read migration version: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	})

	return cmd
}
