// Package inventory defines read access to participant inventories.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a folder or item does not exist
var ErrNotFound = errors.New("inventory entry not found")

// Folder is an inventory folder
type Folder struct {
	ID       uuid.UUID
	OwnerID  uuid.UUID
	ParentID uuid.UUID
	Name     string
}

// IsRoot reports whether the folder has no parent
func (f *Folder) IsRoot() bool {
	return f.ParentID == uuid.Nil
}

// Item is an inventory item pointing at an asset
type Item struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	FolderID  uuid.UUID
	AssetID   uuid.UUID
	AssetType int
	Name      string
}

// Service resolves inventory folders and items for a participant.
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service
type Service interface {
	// GetRootFolder returns the owner's root folder, or ErrNotFound when the
	// owner has no inventory
	GetRootFolder(ctx context.Context, owner uuid.UUID) (*Folder, error)
	// GetItem returns the owner's item, or ErrNotFound
	GetItem(ctx context.Context, owner, itemID uuid.UUID) (*Item, error)
}

// Store is a Service that can also be written to
type Store interface {
	Service
	// CreateFolder adds a folder to the owner's inventory
	CreateFolder(ctx context.Context, folder *Folder) error
	// AddItem adds or replaces an item
	AddItem(ctx context.Context, item *Item) error
}

type ownerKey struct {
	owner uuid.UUID
	id    uuid.UUID
}

// memoryStore keeps inventories in maps
type memoryStore struct {
	mu      sync.RWMutex
	roots   map[uuid.UUID]*Folder
	folders map[ownerKey]*Folder
	items   map[ownerKey]*Item
}

// NewMemoryStore returns an in-memory Store
func NewMemoryStore() Store {
	return &memoryStore{
		roots:   make(map[uuid.UUID]*Folder),
		folders: make(map[ownerKey]*Folder),
		items:   make(map[ownerKey]*Item),
	}
}

func (s *memoryStore) GetRootFolder(_ context.Context, owner uuid.UUID) (*Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.roots[owner]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *memoryStore) GetItem(_ context.Context, owner, itemID uuid.UUID) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[ownerKey{owner, itemID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *it
	return &cp, nil
}

func (s *memoryStore) CreateFolder(_ context.Context, folder *Folder) error {
	if folder == nil || folder.ID == uuid.Nil || folder.OwnerID == uuid.Nil {
		return errors.New("folder id and owner are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if folder.IsRoot() {
		if existing, ok := s.roots[folder.OwnerID]; ok && existing.ID != folder.ID {
			return fmt.Errorf("owner %s already has a root folder", folder.OwnerID)
		}
	} else if _, ok := s.folders[ownerKey{folder.OwnerID, folder.ParentID}]; !ok {
		return fmt.Errorf("parent folder %s: %w", folder.ParentID, ErrNotFound)
	}
	cp := *folder
	s.folders[ownerKey{cp.OwnerID, cp.ID}] = &cp
	if cp.IsRoot() {
		s.roots[cp.OwnerID] = &cp
	}
	return nil
}

func (s *memoryStore) AddItem(_ context.Context, item *Item) error {
	if item == nil || item.ID == uuid.Nil || item.OwnerID == uuid.Nil {
		return errors.New("item id and owner are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.folders[ownerKey{item.OwnerID, item.FolderID}]; !ok {
		return fmt.Errorf("folder %s: %w", item.FolderID, ErrNotFound)
	}
	cp := *item
	s.items[ownerKey{cp.OwnerID, cp.ID}] = &cp
	return nil
}
