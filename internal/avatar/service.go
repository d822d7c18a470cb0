// Package avatar defines persistence of participant appearance and associated avatar data.
package avatar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/stacklok/appearance-server/internal/appearance"
)

// ErrNotFound is returned when nothing is stored for a participant
var ErrNotFound = errors.New("avatar not found")

// Data is everything persisted for a participant
type Data struct {
	Appearance *appearance.Record
	// Values holds free-form avatar data keyed by name, such as the cached wearables blob
	Values map[string]string
}

// CacheIndex decodes the persisted bake cache index. Missing or unreadable data yields
// an empty index.
func (d *Data) CacheIndex() *appearance.CacheIndex {
	if d == nil {
		return appearance.NewCacheIndex()
	}
	idx, err := appearance.ParseCacheIndex(d.Values[appearance.CachedWearablesKey])
	if err != nil {
		return appearance.NewCacheIndex()
	}
	return idx
}

// Service persists appearance records and the bake cache index.
//
//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go Service
type Service interface {
	// SetAppearance stores the participant's appearance
	SetAppearance(ctx context.Context, id uuid.UUID, record *appearance.Record) error
	// GetAvatar loads everything stored for the participant, or ErrNotFound
	GetAvatar(ctx context.Context, id uuid.UUID) (*Data, error)
	// CacheWearableData stores the bake cache index
	CacheWearableData(ctx context.Context, id uuid.UUID, index *appearance.CacheIndex) error
}

// EncodeCacheIndex renders the index in its persisted form
func EncodeCacheIndex(index *appearance.CacheIndex) (string, error) {
	b, err := json.Marshal(index)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache index: %w", err)
	}
	return string(b), nil
}

type memoryEntry struct {
	record *appearance.Record
	values map[string]string
}

// memoryService keeps avatar data in a map
type memoryService struct {
	mu      sync.RWMutex
	avatars map[uuid.UUID]*memoryEntry
}

// NewMemoryService returns an in-memory Service
func NewMemoryService() Service {
	return &memoryService{avatars: make(map[uuid.UUID]*memoryEntry)}
}

func (s *memoryService) entry(id uuid.UUID) *memoryEntry {
	e, ok := s.avatars[id]
	if !ok {
		e = &memoryEntry{values: make(map[string]string)}
		s.avatars[id] = e
	}
	return e
}

func (s *memoryService) SetAppearance(_ context.Context, id uuid.UUID, record *appearance.Record) error {
	if record == nil {
		return errors.New("appearance record is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(id).record = record.Clone()
	return nil
}

func (s *memoryService) GetAvatar(_ context.Context, id uuid.UUID) (*Data, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.avatars[id]
	if !ok {
		return nil, ErrNotFound
	}
	d := &Data{Appearance: e.record.Clone(), Values: make(map[string]string, len(e.values))}
	for k, v := range e.values {
		d.Values[k] = v
	}
	return d, nil
}

func (s *memoryService) CacheWearableData(_ context.Context, id uuid.UUID, index *appearance.CacheIndex) error {
	blob, err := EncodeCacheIndex(index)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entry(id).values[appearance.CachedWearablesKey] = blob
	return nil
}
