// Package appearance models the visible state of a participant: baked textures,
// visual shape parameters, worn items and the bake cache index.
package appearance

import (
	"bytes"

	"github.com/google/uuid"
)

// Visual parameter offsets that contribute to avatar height.
const (
	paramHeelHeight     = 14
	paramShapeHeight    = 25
	paramHeadSize       = 77
	paramPlatformHeight = 113
	paramLegLength      = 125
	paramNeckLength     = 148

	minHeightParams = paramNeckLength + 1

	// baseHeight is the height of the shortest possible avatar in meters
	baseHeight = 1.23077
)

// Record is the appearance of a single participant.
type Record struct {
	Textures     TextureSet  `json:"textures"`
	VisualParams []byte      `json:"visual_params"`
	Wearables    WearableSet `json:"wearables"`
	Serial       int         `json:"serial"`
	Height       float64     `json:"height"`
}

// NewDefaultRecord returns the appearance assigned to a participant with nothing stored.
func NewDefaultRecord() *Record {
	r := &Record{Wearables: DefaultWearables()}
	for i := range r.Textures {
		r.Textures[i] = DefaultAvatarTexture
	}
	return r
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.VisualParams != nil {
		out.VisualParams = bytes.Clone(r.VisualParams)
	}
	out.Wearables = r.Wearables.Clone()
	return &out
}

// SetTextures replaces the baked textures and reports whether any slot differed.
func (r *Record) SetTextures(textures TextureSet) bool {
	changed := r.Textures != textures
	r.Textures = textures
	return changed
}

// SetVisualParams replaces the visual parameters and reports whether they differed.
// Height is recomputed when they change.
func (r *Record) SetVisualParams(params []byte) bool {
	if len(params) == len(r.VisualParams) && bytes.Equal(params, r.VisualParams) {
		return false
	}
	r.VisualParams = bytes.Clone(params)
	r.Height = ComputeHeight(r.VisualParams)
	return true
}

// SetWearable replaces the items worn in one slot.
func (r *Record) SetWearable(slot WearableType, items Wearable) {
	if !slot.Valid() {
		return
	}
	r.Wearables[slot] = items.Clone()
}

// FindItem returns the asset currently bound to itemID in slot.
func (r *Record) FindItem(slot WearableType, itemID uuid.UUID) (uuid.UUID, bool) {
	if !slot.Valid() {
		return uuid.Nil, false
	}
	for _, it := range r.Wearables[slot] {
		if it.ItemID == itemID {
			return it.AssetID, true
		}
	}
	return uuid.Nil, false
}

// HasRealBakes reports whether any slot holds a texture other than the placeholder.
func (r *Record) HasRealBakes() bool {
	for _, t := range r.Textures {
		if !IsUnset(t) && !IsDefault(t) {
			return true
		}
	}
	return false
}

// ComputeHeight derives the avatar height in meters from its visual parameters.
// It returns 0 when params is too short to carry the shape values.
func ComputeHeight(params []byte) float64 {
	if len(params) < minHeightParams {
		return 0
	}
	p := func(i int) float64 { return float64(params[i]) / 255.0 }
	return baseHeight +
		0.516945*p(paramShapeHeight) +
		0.072514*p(paramHeadSize) +
		0.3836*p(paramLegLength) +
		0.08*p(paramPlatformHeight) +
		0.07*p(paramHeelHeight) +
		0.076*p(paramNeckLength)
}
