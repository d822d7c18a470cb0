package storage

import (
	"context"
	"log/slog"

	"github.com/stacklok/appearance-server/internal/assets"
	"github.com/stacklok/appearance-server/internal/avatar"
	"github.com/stacklok/appearance-server/internal/inventory"
)

// MemoryFactory creates in-process storage components.
// Nothing survives a restart.
type MemoryFactory struct {
	assets    assets.Store
	inventory inventory.Store
	avatars   avatar.Service
}

var _ Factory = (*MemoryFactory)(nil)

// NewMemoryFactory creates a new memory-backed storage factory.
// Each component is created once and shared by all callers.
func NewMemoryFactory() *MemoryFactory {
	slog.Info("Creating memory-backed storage factory")
	return &MemoryFactory{
		assets:    assets.NewMemoryStore(),
		inventory: inventory.NewMemoryStore(),
		avatars:   avatar.NewMemoryService(),
	}
}

// CreateAssetStore returns the shared in-memory asset store.
func (m *MemoryFactory) CreateAssetStore(_ context.Context) (assets.Store, error) {
	return m.assets, nil
}

// CreateInventoryStore returns the shared in-memory inventory store.
func (m *MemoryFactory) CreateInventoryStore(_ context.Context) (inventory.Store, error) {
	return m.inventory, nil
}

// CreateAvatarService returns the shared in-memory avatar service.
func (m *MemoryFactory) CreateAvatarService(_ context.Context) (avatar.Service, error) {
	return m.avatars, nil
}

// Cleanup is a no-op for memory storage.
func (*MemoryFactory) Cleanup() {}
