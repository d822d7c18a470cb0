package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
)

// MigrateUp applies every pending migration to the SQLite database at path and returns
// the resulting schema version. Cancelling ctx stops after the migration in progress.
func MigrateUp(ctx context.Context, path string) (uint, error) {
	m, err := NewFromConnectionString(ConnectionString(path))
	if err != nil {
		return 0, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(m)

	if mm, ok := m.(*migrate.Migrate); ok {
		stop := context.AfterFunc(ctx, func() {
			select {
			case mm.GracefulStop <- true:
			default:
			}
		})
		defer stop()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to read migration version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("database is dirty at version %d", version)
	}
	return version, nil
}

// GetVersion returns the schema version of the SQLite database at path.
// A database without migrations reports version 0.
func GetVersion(path string) (uint, bool, error) {
	m, err := NewFromConnectionString(ConnectionString(path))
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrator: %w", err)
	}
	defer closeMigrator(m)

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func closeMigrator(m Migrator) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		slog.Warn("Error closing migrator", "error", err)
	}
}
