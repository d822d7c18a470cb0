package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/appearance-server/internal/assets"
	"github.com/stacklok/appearance-server/internal/avatar"
	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/inventory"
	"github.com/stacklok/appearance-server/internal/storage/sqlite"
)

// SQLiteFactory creates SQLite-backed storage components.
// All components created by this factory share one database handle.
type SQLiteFactory struct {
	store *sqlite.Store

	tracer      trace.Tracer
	lockTimeout time.Duration
}

var _ Factory = (*SQLiteFactory)(nil)

// SQLiteFactoryOption is a functional option for configuring the SQLiteFactory
type SQLiteFactoryOption func(*SQLiteFactory)

// WithTracer sets the OpenTelemetry tracer for the SQLite stores.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) SQLiteFactoryOption {
	return func(f *SQLiteFactory) {
		f.tracer = tracer
	}
}

// WithLockTimeout sets how long to wait for another process to release the database.
func WithLockTimeout(d time.Duration) SQLiteFactoryOption {
	return func(f *SQLiteFactory) {
		f.lockTimeout = d
	}
}

// NewSQLiteFactory creates a new SQLite-backed storage factory.
// It locks the database file, applies pending migrations and opens the handle.
func NewSQLiteFactory(ctx context.Context, cfg *config.Config, opts ...SQLiteFactoryOption) (*SQLiteFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	factory := &SQLiteFactory{}
	for _, opt := range opts {
		opt(factory)
	}

	sqliteCfg := cfg.GetStorage().GetSQLite()
	slog.Info("Creating SQLite-backed storage factory", "path", sqliteCfg.GetPath())

	store, err := sqlite.Open(ctx, sqliteCfg,
		sqlite.WithTracer(factory.tracer),
		sqlite.WithLockTimeout(factory.lockTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite storage: %w", err)
	}
	factory.store = store

	return factory, nil
}

// CreateAssetStore creates a SQLite-backed asset store.
func (f *SQLiteFactory) CreateAssetStore(_ context.Context) (assets.Store, error) {
	slog.Debug("Creating SQLite-backed asset store")
	return f.store.Assets(), nil
}

// CreateInventoryStore creates a SQLite-backed inventory store.
func (f *SQLiteFactory) CreateInventoryStore(_ context.Context) (inventory.Store, error) {
	slog.Debug("Creating SQLite-backed inventory store")
	return f.store.Inventory(), nil
}

// CreateAvatarService creates a SQLite-backed avatar service.
func (f *SQLiteFactory) CreateAvatarService(_ context.Context) (avatar.Service, error) {
	slog.Debug("Creating SQLite-backed avatar service")
	return f.store.Avatars(), nil
}

// Cleanup closes the database and releases the file lock.
func (f *SQLiteFactory) Cleanup() {
	if f.store != nil {
		slog.Info("Closing SQLite storage")
		if err := f.store.Close(); err != nil {
			slog.Warn("Error closing SQLite storage", "error", err)
		}
		f.store = nil
	}
}
