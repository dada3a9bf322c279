package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"github.com/AmiltonRocha/Micro-servi-o-pagamento/internal/config"
	"github.com/AmiltonRocha/Micro-servi-o-pagamento/migrations"
)

// NewMigrator returns a migrator reading the embedded SQL files. Callers must
// Close it.
func NewMigrator(cfg config.DBConfig) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.MigrationConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies all pending migrations. Having nothing to apply is not an
// error.
func MigrateUp(cfg config.DBConfig, logger *zap.Logger) error {
	m, err := NewMigrator(cfg)
	if err != nil {
		return err
	}
	defer CloseMigrator(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	logger.Info("Database migrations completed", zap.Uint("version", version), zap.Bool("dirty", dirty))
	return nil
}

// CloseMigrator closes both ends of m, logging failures.
func CloseMigrator(m *migrate.Migrate, logger *zap.Logger) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		logger.Warn("Failed to close migration source", zap.Error(srcErr))
	}
	if dbErr != nil {
		logger.Warn("Failed to close migration database", zap.Error(dbErr))
	}
}
