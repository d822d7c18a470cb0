// Package sqlite provides SQLite-backed persistence for assets, inventories and avatar data.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/stacklok/appearance-server/database"
	"github.com/stacklok/appearance-server/internal/config"
)

// ErrLocked is returned when another process holds the database lock
var ErrLocked = errors.New("database is locked by another process")

const (
	lockRetryDelay = 100 * time.Millisecond
	openMaxTries   = 5
)

// Store owns the SQLite handle and the process lock guarding it.
type Store struct {
	db     *sql.DB
	lock   *flock.Flock
	path   string
	tracer trace.Tracer

	lockTimeout time.Duration
}

// Option configures a Store
type Option func(*Store)

// WithTracer sets the OpenTelemetry tracer used for store operations.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) {
		s.tracer = tracer
	}
}

// WithLockTimeout bounds how long Open waits for the database lock.
// Zero fails immediately when the lock is held.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.lockTimeout = d
	}
}

// Open locks, migrates and opens the database described by cfg.
func Open(ctx context.Context, cfg *config.SQLiteConfig, opts ...Option) (*Store, error) {
	path := cfg.GetPath()
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)

	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if err := s.acquireLock(ctx, cfg.GetLockPath()); err != nil {
		return nil, err
	}

	db, err := s.open(ctx, cfg)
	if err != nil {
		s.releaseLock()
		return nil, err
	}
	s.db = db

	slog.Info("SQLite storage opened", "path", path)
	return s, nil
}

func (s *Store) acquireLock(ctx context.Context, lockPath string) error {
	lock := flock.New(lockPath)

	var (
		locked bool
		err    error
	)
	if s.lockTimeout > 0 {
		lockCtx, cancel := context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
		locked, err = lock.TryLockContext(lockCtx, lockRetryDelay)
		if errors.Is(err, context.DeadlineExceeded) {
			err = nil
		}
	} else {
		locked, err = lock.TryLock()
	}
	if err != nil {
		return fmt.Errorf("failed to acquire database lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, lockPath)
	}
	s.lock = lock
	return nil
}

func (s *Store) releaseLock() {
	if s.lock == nil {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		slog.Warn("Failed to release database lock", "error", err)
	}
	s.lock = nil
}

func (s *Store) open(ctx context.Context, cfg *config.SQLiteConfig) (*sql.DB, error) {
	version, err := database.MigrateUp(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Debug("Database schema is current", "version", version)

	db, err := sql.Open("sqlite", dsn(s.path, cfg.GetBusyTimeout()))
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(cfg.GetMaxOpenConns())

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(openMaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			slog.Warn("SQLite ping failed, retrying", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return db, nil
}

// dsn builds a modernc.org/sqlite data source name with the connection pragmas.
func dsn(path string, busyTimeout time.Duration) string {
	pragmas := []string{
		fmt.Sprintf("_pragma=busy_timeout(%d)", busyTimeout.Milliseconds()),
		"_pragma=journal_mode(WAL)",
		"_pragma=foreign_keys(1)",
		"_pragma=synchronous(NORMAL)",
		"_txlock=immediate",
	}
	return "file:" + filepath.ToSlash(path) + "?" + strings.Join(pragmas, "&")
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.path
}

// Close releases the SQLite connection and the process lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
		s.db = nil
	}
	s.releaseLock()
	return err
}

// Assets returns the asset store backed by this database
func (s *Store) Assets() *AssetStore {
	return &AssetStore{store: s}
}

// Inventory returns the inventory store backed by this database
func (s *Store) Inventory() *InventoryStore {
	return &InventoryStore{store: s}
}

// Avatars returns the avatar service backed by this database
func (s *Store) Avatars() *AvatarService {
	return &AvatarService{store: s}
}

func (s *Store) conn(ctx context.Context) (*sql.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("storage is not open")
	}
	return s.db, nil
}

// nullableID maps the nil UUID to SQL NULL
func nullableID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

// tracerAttrs tags a span as a SQLite operation
func tracerAttrs(kv ...attribute.KeyValue) trace.SpanStartOption {
	return trace.WithAttributes(append([]attribute.KeyValue{attribute.String("db.system", "sqlite")}, kv...)...)
}
