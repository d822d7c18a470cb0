package appearance

import "github.com/google/uuid"

// CachedTextureRequest asks whether the bake for a viewer-computed cache id is already known.
type CachedTextureRequest struct {
	TextureIndex int       `json:"texture_index"`
	CacheID      uuid.UUID `json:"cache_id"`
}

// CachedTextureResponse answers a CachedTextureRequest. TextureID is uuid.Nil on a miss.
type CachedTextureResponse struct {
	TextureIndex int       `json:"texture_index"`
	TextureID    uuid.UUID `json:"texture_id"`
}

// WearableCacheHint tells the server which cache id the viewer computed for a texture face.
type WearableCacheHint struct {
	CacheID      uuid.UUID `json:"cache_id"`
	TextureIndex int       `json:"texture_index"`
}

// CacheEntries pairs each hint with the baked texture currently assigned to its face.
// Hints for faces outside the bake set or with no texture assigned are skipped.
func CacheEntries(hints []WearableCacheHint, textures TextureSet) []CacheEntry {
	out := make([]CacheEntry, 0, len(hints))
	for _, h := range hints {
		pos, ok := BakePositionForFace(h.TextureIndex)
		if !ok || h.CacheID == uuid.Nil {
			continue
		}
		tex := textures[pos]
		if IsUnset(tex) {
			continue
		}
		out = append(out, CacheEntry{CacheID: h.CacheID, AssetID: tex})
	}
	return out
}
