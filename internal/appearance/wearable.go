package appearance

import (
	"fmt"

	"github.com/google/uuid"
)

// WearableType is the body slot a worn item occupies.
type WearableType int

// Wearable slots in viewer order.
const (
	WearableShape WearableType = iota
	WearableSkin
	WearableHair
	WearableEyes
	WearableShirt
	WearablePants
	WearableShoes
	WearableSocks
	WearableJacket
	WearableGloves
	WearableUndershirt
	WearableUnderpants
	WearableSkirt
	WearableAlpha
	WearableTattoo
	WearablePhysics

	// NumWearableTypes is the number of wearable slots
	NumWearableTypes = 16
)

var wearableNames = [NumWearableTypes]string{
	"shape", "skin", "hair", "eyes", "shirt", "pants", "shoes", "socks",
	"jacket", "gloves", "undershirt", "underpants", "skirt", "alpha", "tattoo", "physics",
}

// String returns the lowercase slot name
func (w WearableType) String() string {
	if !w.Valid() {
		return fmt.Sprintf("wearable(%d)", int(w))
	}
	return wearableNames[w]
}

// Valid reports whether w names a known slot
func (w WearableType) Valid() bool {
	return w >= 0 && w < NumWearableTypes
}

// ParseWearableType converts a slot name to its WearableType.
func ParseWearableType(name string) (WearableType, error) {
	for i, n := range wearableNames {
		if n == name {
			return WearableType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown wearable type %q", name)
}

// Item binds an inventory item to the asset it refers to.
type Item struct {
	ItemID  uuid.UUID `json:"item_id"`
	AssetID uuid.UUID `json:"asset_id"`
}

// Wearable is the ordered list of items layered in one slot.
type Wearable []Item

// Clone returns a copy of w that shares no backing array
func (w Wearable) Clone() Wearable {
	if w == nil {
		return nil
	}
	out := make(Wearable, len(w))
	copy(out, w)
	return out
}

// Equal reports whether both lists hold the same items in the same order
func (w Wearable) Equal(other Wearable) bool {
	if len(w) != len(other) {
		return false
	}
	for i := range w {
		if w[i] != other[i] {
			return false
		}
	}
	return true
}

// WearableSet holds the items worn in every slot.
type WearableSet [NumWearableTypes]Wearable

// Clone deep-copies the set
func (s WearableSet) Clone() WearableSet {
	var out WearableSet
	for i := range s {
		out[i] = s[i].Clone()
	}
	return out
}

var defaultWearables = func() WearableSet {
	var s WearableSet
	s[WearableShape] = Wearable{{
		ItemID:  uuid.MustParse("66c41e39-38f9-f75a-024e-585989bfaba9"),
		AssetID: uuid.MustParse("66c41e39-38f9-f75a-024e-585989bfab73"),
	}}
	s[WearableSkin] = Wearable{{
		ItemID:  uuid.MustParse("77c41e39-38f9-f75a-024e-585989bfabc9"),
		AssetID: uuid.MustParse("77c41e39-38f9-f75a-024e-585989bbabbb"),
	}}
	s[WearableHair] = Wearable{{
		ItemID:  uuid.MustParse("d342e6c1-b9d2-11dc-95ff-0800200c9a66"),
		AssetID: uuid.MustParse("d342e6c0-b9d2-11dc-95ff-0800200c9a66"),
	}}
	s[WearableEyes] = Wearable{{
		ItemID:  uuid.MustParse("cdc31054-eed8-4021-994f-4e0c6e861b50"),
		AssetID: uuid.MustParse("4bb6fa4d-1cd2-498a-a84c-95c1a0e745a7"),
	}}
	s[WearableShirt] = Wearable{{
		ItemID:  uuid.MustParse("77c41e39-38f9-f75a-0000-585989bf0000"),
		AssetID: uuid.MustParse("00000000-38f9-1111-024e-222222111110"),
	}}
	s[WearablePants] = Wearable{{
		ItemID:  uuid.MustParse("77c41e39-38f9-f75a-0000-5859892f1111"),
		AssetID: uuid.MustParse("00000000-38f9-1111-024e-222222111120"),
	}}
	return s
}()

// DefaultWearables returns a fresh copy of the stock outfit.
func DefaultWearables() WearableSet {
	return defaultWearables.Clone()
}

// DefaultItem returns the stock item for the slot at the given layer position, if there is one.
func DefaultItem(slot WearableType, pos int) (Item, bool) {
	if !slot.Valid() || pos < 0 || pos >= len(defaultWearables[slot]) {
		return Item{}, false
	}
	return defaultWearables[slot][pos], true
}
