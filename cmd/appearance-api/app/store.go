package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/storage/sqlite"
)

// addStoreFlags adds the flags shared by commands that work on the SQLite database directly
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to configuration file (YAML format, required)")
	cmd.Flags().Duration("lock-timeout", 0, "How long to wait for a running server to release the database")

	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
}

// openStore opens the SQLite database named by the --config file
func openStore(cmd *cobra.Command) (*sqlite.Store, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	lockTimeout, err := cmd.Flags().GetDuration("lock-timeout")
	if err != nil {
		return nil, fmt.Errorf("failed to get lock-timeout flag: %w", err)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.GetStorage().GetType() != config.StorageTypeSQLite {
		return nil, fmt.Errorf("storage type is %q, this command requires %q",
			cfg.GetStorage().GetType(), config.StorageTypeSQLite)
	}

	store, err := sqlite.Open(cmd.Context(), cfg.GetStorage().GetSQLite(), sqlite.WithLockTimeout(lockTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return store, nil
}
