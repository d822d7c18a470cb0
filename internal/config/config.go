// Package config provides configuration loading and management for the appearance server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/appearance-server/internal/telemetry"
)

const (
	// StorageTypeMemory keeps avatars, inventory and assets in process memory
	StorageTypeMemory = "memory"

	// StorageTypeSQLite keeps avatars, inventory and assets in a local SQLite file
	StorageTypeSQLite = "sqlite"
)

const (
	// DefaultSaveDelay is how long a participant's appearance waits before it is persisted
	DefaultSaveDelay = 5 * time.Second

	// DefaultSendDelay is how long a participant's appearance waits before it is broadcast
	DefaultSendDelay = 2 * time.Second

	// DefaultSweepInterval is the period of the pending update sweep
	DefaultSweepInterval = 500 * time.Millisecond

	// DefaultWorkers is the number of background workers
	DefaultWorkers = 8

	// DefaultQueueSize is the number of background jobs that may wait for a worker
	DefaultQueueSize = 1024

	// DefaultBusyTimeout is how long SQLite waits on a locked database
	DefaultBusyTimeout = 5 * time.Second

	// DefaultInstanceName identifies the server when nothing is configured
	DefaultInstanceName = "default"

	dataDirName = "appearance-server"
	dbFileName  = "appearance.db"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// InstanceName identifies this server in logs and telemetry
	// Defaults to "default" if not specified
	InstanceName string            `yaml:"instanceName,omitempty"`
	Appearance   *AppearanceConfig `yaml:"appearance,omitempty"`
	Storage      *StorageConfig    `yaml:"storage,omitempty"`
	Telemetry    *telemetry.Config `yaml:"telemetry,omitempty"`
}

// AppearanceConfig tunes the appearance update pipeline
type AppearanceConfig struct {
	// SaveDelay is the debounce before a changed appearance is persisted (e.g. "5s")
	SaveDelay string `yaml:"saveDelay,omitempty"`

	// SendDelay is the debounce before an appearance is broadcast (e.g. "2s")
	SendDelay string `yaml:"sendDelay,omitempty"`

	// SweepInterval is how often pending saves and sends are checked (e.g. "500ms")
	SweepInterval string `yaml:"sweepInterval,omitempty"`

	// Workers is the number of goroutines running saves, sends and bake checks
	Workers int `yaml:"workers,omitempty"`

	// QueueSize bounds the background jobs waiting for a worker
	QueueSize int `yaml:"queueSize,omitempty"`
}

// StorageConfig selects the backend for avatar, inventory and asset data
type StorageConfig struct {
	// Type is either "memory" or "sqlite". Defaults to "memory".
	Type string `yaml:"type,omitempty"`

	SQLite *SQLiteConfig `yaml:"sqlite,omitempty"`
}

// SQLiteConfig defines the local database settings
type SQLiteConfig struct {
	// Path is the database file. Defaults to appearance-server/appearance.db under the
	// XDG data home.
	Path string `yaml:"path,omitempty"`

	// BusyTimeout is how long a connection waits on a locked database (e.g. "5s")
	BusyTimeout string `yaml:"busyTimeout,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database
	MaxOpenConns int `yaml:"maxOpenConns,omitempty"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Appearance: &AppearanceConfig{},
		Storage:    &StorageConfig{Type: StorageTypeMemory},
	}
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// GetInstanceName returns the instance name, using "default" if not specified
func (c *Config) GetInstanceName() string {
	if c.InstanceName == "" {
		return DefaultInstanceName
	}
	return c.InstanceName
}

// GetAppearance returns the appearance section, never nil
func (c *Config) GetAppearance() *AppearanceConfig {
	if c.Appearance == nil {
		return &AppearanceConfig{}
	}
	return c.Appearance
}

// GetStorage returns the storage section, never nil
func (c *Config) GetStorage() *StorageConfig {
	if c.Storage == nil {
		return &StorageConfig{Type: StorageTypeMemory}
	}
	return c.Storage
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error
	if err := c.GetAppearance().validate(); err != nil {
		errs = append(errs, fmt.Errorf("appearance: %w", err))
	}
	if err := c.GetStorage().validate(); err != nil {
		errs = append(errs, fmt.Errorf("storage: %w", err))
	}
	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	return errors.Join(errs...)
}

// GetSaveDelay returns the save debounce, using DefaultSaveDelay when unset
func (a *AppearanceConfig) GetSaveDelay() time.Duration {
	return durationOr(a.SaveDelay, DefaultSaveDelay)
}

// GetSendDelay returns the send debounce, using DefaultSendDelay when unset
func (a *AppearanceConfig) GetSendDelay() time.Duration {
	return durationOr(a.SendDelay, DefaultSendDelay)
}

// GetSweepInterval returns the sweep period, using DefaultSweepInterval when unset
func (a *AppearanceConfig) GetSweepInterval() time.Duration {
	return durationOr(a.SweepInterval, DefaultSweepInterval)
}

// GetWorkers returns the worker count, using DefaultWorkers when unset
func (a *AppearanceConfig) GetWorkers() int {
	if a.Workers <= 0 {
		return DefaultWorkers
	}
	return a.Workers
}

// GetQueueSize returns the job queue size, using DefaultQueueSize when unset
func (a *AppearanceConfig) GetQueueSize() int {
	if a.QueueSize <= 0 {
		return DefaultQueueSize
	}
	return a.QueueSize
}

func (a *AppearanceConfig) validate() error {
	var errs []error
	for name, value := range map[string]string{
		"saveDelay":     a.SaveDelay,
		"sendDelay":     a.SendDelay,
		"sweepInterval": a.SweepInterval,
	} {
		if err := validateDuration(value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if a.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", a.Workers))
	}
	if a.QueueSize < 0 {
		errs = append(errs, fmt.Errorf("queueSize must not be negative, got %d", a.QueueSize))
	}
	return errors.Join(errs...)
}

// GetType returns the storage type, using "memory" when unset
func (s *StorageConfig) GetType() string {
	if s.Type == "" {
		return StorageTypeMemory
	}
	return s.Type
}

// GetSQLite returns the SQLite section, never nil
func (s *StorageConfig) GetSQLite() *SQLiteConfig {
	if s.SQLite == nil {
		return &SQLiteConfig{}
	}
	return s.SQLite
}

func (s *StorageConfig) validate() error {
	switch s.GetType() {
	case StorageTypeMemory:
		return nil
	case StorageTypeSQLite:
		sq := s.GetSQLite()
		if err := validateDuration(sq.BusyTimeout); err != nil {
			return fmt.Errorf("sqlite.busyTimeout: %w", err)
		}
		if sq.MaxOpenConns < 0 {
			return fmt.Errorf("sqlite.maxOpenConns must not be negative, got %d", sq.MaxOpenConns)
		}
		return nil
	default:
		return fmt.Errorf("unsupported type %q (expected %q or %q)", s.Type, StorageTypeMemory, StorageTypeSQLite)
	}
}

// GetPath returns the database file, defaulting under the XDG data home
func (s *SQLiteConfig) GetPath() string {
	if s.Path != "" {
		return s.Path
	}
	return filepath.Join(xdg.DataHome, dataDirName, dbFileName)
}

// GetLockPath returns the file locked by the process owning the database
func (s *SQLiteConfig) GetLockPath() string {
	return s.GetPath() + ".lock"
}

// GetBusyTimeout returns the lock wait, using DefaultBusyTimeout when unset
func (s *SQLiteConfig) GetBusyTimeout() time.Duration {
	return durationOr(s.BusyTimeout, DefaultBusyTimeout)
}

// GetMaxOpenConns returns the connection limit, 1 when unset
func (s *SQLiteConfig) GetMaxOpenConns() int {
	if s.MaxOpenConns <= 0 {
		return 1
	}
	return s.MaxOpenConns
}

func validateDuration(value string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value, err)
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive, got %q", value)
	}
	return nil
}

// durationOr parses value, falling back to def when it is empty or invalid
func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
