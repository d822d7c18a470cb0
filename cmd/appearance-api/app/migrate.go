package app

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/stacklok/appearance-server/database"
	"github.com/stacklok/appearance-server/internal/config"
)

func newMigrateCmd() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	migrateCmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	migrateCmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	migrateCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, required)")

	if err := migrateCmd.MarkPersistentFlagRequired("config"); err != nil {
		panic(err)
	}

	// Add subcommands
	migrateCmd.AddCommand(newMigrateUpCmd())
	migrateCmd.AddCommand(newMigrateDownCmd())

	return migrateCmd
}

// migrationTarget is an SQLite database locked for the duration of a migration
type migrationTarget struct {
	path string
	lock *flock.Flock
}

// release unlocks the database
func (t *migrationTarget) release() {
	if err := t.lock.Unlock(); err != nil {
		slog.Warn("Failed to release database lock", "path", t.path, "error", err)
	}
}

// migrator opens the migration tooling on the target database
func (t *migrationTarget) migrator() (database.Migrator, error) {
	m, err := database.NewFromConnectionString(database.ConnectionString(t.path))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}

// setupMigration loads the configuration and takes the lock a running server holds on
// the database, so schema changes never race a live process
func setupMigration(cmd *cobra.Command) (*migrationTarget, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.GetStorage().GetType() != config.StorageTypeSQLite {
		return nil, fmt.Errorf("storage type is %q, migrations require %q", cfg.GetStorage().GetType(), config.StorageTypeSQLite)
	}

	sqliteCfg := cfg.GetStorage().GetSQLite()
	path := sqliteCfg.GetPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	lock := flock.New(sqliteCfg.GetLockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to lock database: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("database %s is in use by another process", path)
	}

	return &migrationTarget{path: path, lock: lock}, nil
}

// confirm asks a yes/no question on the command's output and reads the answer from its input
func confirm(cmd *cobra.Command, prompt string) bool {
	return confirmFrom(cmd.InOrStdin(), cmd.OutOrStdout(), prompt)
}

func confirmFrom(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y":
		return true
	default:
		return false
	}
}
