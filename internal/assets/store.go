// Package assets defines the asset store used to check that baked textures exist.
package assets

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an asset does not exist
var ErrNotFound = errors.New("asset not found")

// Type is the asset content type
type Type int

const (
	// TypeTexture is a texture asset
	TypeTexture Type = 0
	// TypeBodypart is a shape, skin, hair or eyes asset
	TypeBodypart Type = 13
	// TypeClothing is a clothing layer asset
	TypeClothing Type = 5
)

// Asset is a stored asset
type Asset struct {
	ID        uuid.UUID
	Type      Type
	Name      string
	Data      []byte
	CreatedAt time.Time
}

// Store provides access to assets.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go Store
type Store interface {
	// Exists reports whether the asset is present
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	// Get returns the asset or ErrNotFound
	Get(ctx context.Context, id uuid.UUID) (*Asset, error)
	// Put stores the asset, replacing any previous one with the same id
	Put(ctx context.Context, asset *Asset) error
}

// memoryStore keeps assets in a map
type memoryStore struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*Asset
}

// NewMemoryStore returns an in-memory Store
func NewMemoryStore() Store {
	return &memoryStore{assets: make(map[uuid.UUID]*Asset)}
}

func (s *memoryStore) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.assets[id]
	return ok, nil
}

func (s *memoryStore) Get(_ context.Context, id uuid.UUID) (*Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *memoryStore) Put(_ context.Context, asset *Asset) error {
	if asset == nil || asset.ID == uuid.Nil {
		return errors.New("asset id is required")
	}
	cp := *asset
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[cp.ID] = &cp
	return nil
}
