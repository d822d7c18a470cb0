package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/appearance-server/internal/telemetry"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name             string
		yamlContent      string
		skipFileCreation bool
		wantConfig       *Config
		wantErr          string
	}{
		{
			name: "full_config",
			yamlContent: `instanceName: region-a
appearance:
  saveDelay: 10s
  sendDelay: 1s
  sweepInterval: 250ms
  workers: 4
  queueSize: 64
storage:
  type: sqlite
  sqlite:
    path: /var/lib/appearance/appearance.db
    busyTimeout: 2s
telemetry:
  enabled: true
  metrics:
    enabled: true
    exporter: prometheus`,
			wantConfig: &Config{
				InstanceName: "region-a",
				Appearance: &AppearanceConfig{
					SaveDelay:     "10s",
					SendDelay:     "1s",
					SweepInterval: "250ms",
					Workers:       4,
					QueueSize:     64,
				},
				Storage: &StorageConfig{
					Type: StorageTypeSQLite,
					SQLite: &SQLiteConfig{
						Path:        "/var/lib/appearance/appearance.db",
						BusyTimeout: "2s",
					},
				},
				Telemetry: &telemetry.Config{
					Enabled: true,
					Metrics: &telemetry.MetricsConfig{Enabled: true, Exporter: telemetry.ExporterPrometheus},
				},
			},
		},
		{
			name:        "empty_config_uses_defaults",
			yamlContent: `{}`,
			wantConfig:  &Config{},
		},
		{
			name: "invalid_duration",
			yamlContent: `appearance:
  saveDelay: soon`,
			wantErr: "saveDelay",
		},
		{
			name: "negative_duration",
			yamlContent: `appearance:
  sendDelay: -1s`,
			wantErr: "duration must be positive",
		},
		{
			name: "negative_workers",
			yamlContent: `appearance:
  workers: -2`,
			wantErr: "workers must not be negative",
		},
		{
			name: "unknown_storage",
			yamlContent: `storage:
  type: postgres`,
			wantErr: `unsupported type "postgres"`,
		},
		{
			name: "invalid_sqlite_timeout",
			yamlContent: `storage:
  type: sqlite
  sqlite:
    busyTimeout: forever`,
			wantErr: "sqlite.busyTimeout",
		},
		{
			name: "invalid_telemetry",
			yamlContent: `telemetry:
  enabled: true
  tracing:
    enabled: true
    sampling: 2`,
			wantErr: "telemetry",
		},
		{
			name:        "invalid_yaml",
			yamlContent: "appearance: [",
			wantErr:     "failed to parse YAML config",
		},
		{
			name:             "missing_file",
			skipFileCreation: true,
			wantErr:          "failed to evaluate symlinks",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "config.yaml")
			if !tt.skipFileCreation {
				require.NoError(t, os.WriteFile(path, []byte(tt.yamlContent), 0600))
			}

			cfg, err := LoadConfig(WithConfigPath(path))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig, cfg)
		})
	}
}

func TestLoadConfig_PathRequired(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig()
	require.EqualError(t, err, "path is required")

	_, err = LoadConfig(WithConfigPath(""))
	require.EqualError(t, err, "path is required")
}

func TestAppearanceConfig_Getters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		cfg           *AppearanceConfig
		wantSave      time.Duration
		wantSend      time.Duration
		wantSweep     time.Duration
		wantWorkers   int
		wantQueueSize int
	}{
		{
			name:          "defaults",
			cfg:           &AppearanceConfig{},
			wantSave:      DefaultSaveDelay,
			wantSend:      DefaultSendDelay,
			wantSweep:     DefaultSweepInterval,
			wantWorkers:   DefaultWorkers,
			wantQueueSize: DefaultQueueSize,
		},
		{
			name: "configured",
			cfg: &AppearanceConfig{
				SaveDelay:     "1m",
				SendDelay:     "3s",
				SweepInterval: "1s",
				Workers:       2,
				QueueSize:     10,
			},
			wantSave:      time.Minute,
			wantSend:      3 * time.Second,
			wantSweep:     time.Second,
			wantWorkers:   2,
			wantQueueSize: 10,
		},
		{
			name:          "unparseable_falls_back",
			cfg:           &AppearanceConfig{SaveDelay: "later", SendDelay: "0s"},
			wantSave:      DefaultSaveDelay,
			wantSend:      DefaultSendDelay,
			wantSweep:     DefaultSweepInterval,
			wantWorkers:   DefaultWorkers,
			wantQueueSize: DefaultQueueSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantSave, tt.cfg.GetSaveDelay())
			assert.Equal(t, tt.wantSend, tt.cfg.GetSendDelay())
			assert.Equal(t, tt.wantSweep, tt.cfg.GetSweepInterval())
			assert.Equal(t, tt.wantWorkers, tt.cfg.GetWorkers())
			assert.Equal(t, tt.wantQueueSize, tt.cfg.GetQueueSize())
		})
	}
}

func TestStorageConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultInstanceName, cfg.GetInstanceName())
	assert.Equal(t, StorageTypeMemory, cfg.GetStorage().GetType())

	sq := cfg.GetStorage().GetSQLite()
	assert.Equal(t, filepath.Join(dataDirName, dbFileName), filepath.Join(filepath.Base(filepath.Dir(sq.GetPath())), filepath.Base(sq.GetPath())))
	assert.Equal(t, sq.GetPath()+".lock", sq.GetLockPath())
	assert.Equal(t, DefaultBusyTimeout, sq.GetBusyTimeout())
	assert.Equal(t, 1, sq.GetMaxOpenConns())

	custom := &SQLiteConfig{Path: "/tmp/a.db", BusyTimeout: "250ms", MaxOpenConns: 4}
	assert.Equal(t, "/tmp/a.db", custom.GetPath())
	assert.Equal(t, 250*time.Millisecond, custom.GetBusyTimeout())
	assert.Equal(t, 4, custom.GetMaxOpenConns())
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NoError(t, cfg.validate())
	assert.Equal(t, StorageTypeMemory, cfg.GetStorage().GetType())
	assert.Equal(t, DefaultSaveDelay, cfg.GetAppearance().GetSaveDelay())
}

func TestWithConfigPath_Symlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "real.yaml")
	require.NoError(t, os.WriteFile(target, []byte("instanceName: linked\n"), 0600))
	link := filepath.Join(dir, "link.yaml")
	require.NoError(t, os.Symlink(target, link))

	cfg, err := LoadConfig(WithConfigPath(link))
	require.NoError(t, err)
	assert.Equal(t, "linked", cfg.GetInstanceName())
}
