package app

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/stacklok/appearance-server/database"
)

func newMigrateUpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply pending database migrations to bring the schema up to date.
This command reads the SQLite database location from the config file and applies
all migrations that haven't been run yet, or --num-steps of them.

The server applies pending migrations on start, so this is only needed to prepare
a database ahead of time.`,
		RunE: runMigrateUp,
	}
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	target, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer target.release()

	// Prompt user if not using --yes flag
	if !yes {
		slog.Info("About to apply migrations", "database", target.path)
		if !confirm(cmd, "Continue?") {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	m, err := target.migrator()
	if err != nil {
		return err
	}

	if err := executeMigrateUp(m, numSteps); err != nil {
		closeMigrator(m)
		return err
	}
	displayMigrationVersion(m, numSteps)
	closeMigrator(m)
	return nil
}

func executeMigrateUp(m database.Migrator, numSteps uint) error {
	var err error
	if numSteps == 0 {
		slog.Info("Applying database migrations...")
		err = m.Up()
	} else {
		slog.Info("Applying database migrations", "steps", numSteps)
		// Check for overflow before conversion
		if numSteps > math.MaxInt {
			return fmt.Errorf("number of steps exceeds maximum allowed value")
		}
		err = m.Steps(int(numSteps)) // #nosec G115 -- overflow checked above
	}

	if err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			slog.Info("No migrations to apply - database is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Migrations applied successfully")
	return nil
}

func closeMigrator(m database.Migrator) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		slog.Error("Error closing migrator", "error", err)
	}
}
