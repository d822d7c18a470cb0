package appearance

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CachedWearablesKey is the avatar data key the cache index is persisted under.
const CachedWearablesKey = "CachedWearables"

// CacheEntry is one cacheID → baked asset mapping
type CacheEntry struct {
	CacheID uuid.UUID `json:"cache_id"`
	AssetID uuid.UUID `json:"asset_id"`
}

// CacheIndex maps viewer-computed cache ids to the baked texture asset they produced.
// It is safe for concurrent use.
type CacheIndex struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]uuid.UUID
}

// NewCacheIndex returns an empty index
func NewCacheIndex() *CacheIndex {
	return &CacheIndex{entries: make(map[uuid.UUID]uuid.UUID)}
}

// Lookup returns the baked asset for cacheID.
func (c *CacheIndex) Lookup(cacheID uuid.UUID) (uuid.UUID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[cacheID]
	return id, ok
}

// Put records a mapping, replacing any previous one. Nil cache ids are ignored.
func (c *CacheIndex) Put(cacheID, assetID uuid.UUID) {
	if cacheID == uuid.Nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheID] = assetID
}

// Merge adds every entry and reports how many mappings were new or changed.
func (c *CacheIndex) Merge(entries []CacheEntry) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range entries {
		if e.CacheID == uuid.Nil {
			continue
		}
		if cur, ok := c.entries[e.CacheID]; ok && cur == e.AssetID {
			continue
		}
		c.entries[e.CacheID] = e.AssetID
		n++
	}
	return n
}

// Len returns the number of mappings
func (c *CacheIndex) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries returns a snapshot of all mappings.
func (c *CacheIndex) Entries() []CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CacheEntry, 0, len(c.entries))
	for k, v := range c.entries {
		out = append(out, CacheEntry{CacheID: k, AssetID: v})
	}
	return out
}

// MarshalJSON encodes the index as a list of entries
func (c *CacheIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Entries())
}

// UnmarshalJSON replaces the index contents with the encoded entries
func (c *CacheIndex) UnmarshalJSON(data []byte) error {
	var entries []CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to decode cache index: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uuid.UUID]uuid.UUID, len(entries))
	for _, e := range entries {
		if e.CacheID == uuid.Nil {
			continue
		}
		c.entries[e.CacheID] = e.AssetID
	}
	return nil
}

// ParseCacheIndex decodes a persisted blob. An empty blob yields an empty index.
func ParseCacheIndex(blob string) (*CacheIndex, error) {
	idx := NewCacheIndex()
	if blob == "" {
		return idx, nil
	}
	if err := idx.UnmarshalJSON([]byte(blob)); err != nil {
		return nil, err
	}
	return idx, nil
}
