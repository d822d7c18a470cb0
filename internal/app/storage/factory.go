// Package storage provides factory functions for creating storage-dependent components.
// It implements the Abstract Factory pattern to ensure related components (asset store,
// inventory store, avatar service) are created with compatible storage backends.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/appearance-server/internal/assets"
	"github.com/stacklok/appearance-server/internal/avatar"
	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/inventory"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family.
// Implementations ensure all components are compatible with each other
// (e.g., all use SQLite or all use memory).
//
// The factory encapsulates the creation of:
// - AssetStore: Answers baked texture existence checks
// - InventoryStore: Resolves worn items to assets
// - AvatarService: Persists appearance and the bake cache index
//
// It also manages the lifecycle of storage resources (e.g., database handles).
type Factory interface {
	// CreateAssetStore creates the asset store.
	CreateAssetStore(ctx context.Context) (assets.Store, error)

	// CreateInventoryStore creates the inventory store.
	CreateInventoryStore(ctx context.Context) (inventory.Store, error)

	// CreateAvatarService creates the avatar persistence service.
	CreateAvatarService(ctx context.Context) (avatar.Service, error)

	// Cleanup releases any resources held by this factory.
	// For SQLite factories, this closes the database and releases its lock.
	// For memory factories, this is a no-op.
	// Should be called when the application shuts down.
	Cleanup()
}

// NewStorageFactory creates a storage factory based on the configured storage type.
// Returns a MemoryFactory for in-process storage or a SQLiteFactory for database storage.
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...SQLiteFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorage().GetType() {
	case config.StorageTypeSQLite:
		return NewSQLiteFactory(ctx, cfg, opts...)
	case config.StorageTypeMemory:
		return NewMemoryFactory(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorage().GetType())
	}
}
