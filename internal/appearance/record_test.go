package appearance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SetTextures(t *testing.T) {
	t.Parallel()

	bake := uuid.New()
	tests := []struct {
		name    string
		initial TextureSet
		update  func(TextureSet) TextureSet
		want    bool
	}{
		{
			name:   "identical_set",
			update: func(s TextureSet) TextureSet { return s },
			want:   false,
		},
		{
			name: "one_slot_differs",
			update: func(s TextureSet) TextureSet {
				s[BakeHair] = bake
				return s
			},
			want: true,
		},
		{
			name:    "slot_cleared",
			initial: TextureSet{bake},
			update: func(s TextureSet) TextureSet {
				s[BakeHead] = uuid.Nil
				return s
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := &Record{Textures: tt.initial}
			next := tt.update(tt.initial)
			assert.Equal(t, tt.want, r.SetTextures(next))
			assert.Equal(t, next, r.Textures)
		})
	}
}

func TestRecord_SetVisualParams(t *testing.T) {
	t.Parallel()

	r := &Record{}
	params := make([]byte, 218)
	params[paramShapeHeight] = 255

	require.True(t, r.SetVisualParams(params))
	assert.InDelta(t, baseHeight+0.516945, r.Height, 1e-9)

	assert.False(t, r.SetVisualParams(params), "same bytes must not report a change")

	shorter := params[:200]
	assert.True(t, r.SetVisualParams(shorter), "length change must report a change")

	params[0] = 1
	assert.Equal(t, byte(0), r.VisualParams[0], "record must not alias the caller's slice")
}

func TestComputeHeight(t *testing.T) {
	t.Parallel()

	assert.Zero(t, ComputeHeight(nil))
	assert.Zero(t, ComputeHeight(make([]byte, minHeightParams-1)))
	assert.InDelta(t, baseHeight, ComputeHeight(make([]byte, minHeightParams)), 1e-9)

	full := make([]byte, 218)
	for _, i := range []int{paramShapeHeight, paramHeadSize, paramLegLength, paramPlatformHeight, paramHeelHeight, paramNeckLength} {
		full[i] = 255
	}
	assert.InDelta(t, baseHeight+0.516945+0.072514+0.3836+0.08+0.07+0.076, ComputeHeight(full), 1e-9)
}

func TestRecord_Clone(t *testing.T) {
	t.Parallel()

	r := NewDefaultRecord()
	r.VisualParams = []byte{1, 2, 3}
	c := r.Clone()

	c.VisualParams[0] = 9
	c.Wearables[WearableShape][0].AssetID = uuid.Nil
	c.Textures[BakeHead] = uuid.Nil

	assert.Equal(t, byte(1), r.VisualParams[0])
	assert.NotEqual(t, uuid.Nil, r.Wearables[WearableShape][0].AssetID)
	assert.Equal(t, DefaultAvatarTexture, r.Textures[BakeHead])
}

func TestNewDefaultRecord(t *testing.T) {
	t.Parallel()

	r := NewDefaultRecord()
	assert.False(t, r.HasRealBakes())
	for _, slot := range []WearableType{WearableShape, WearableSkin, WearableHair, WearableEyes, WearableShirt, WearablePants} {
		require.Len(t, r.Wearables[slot], 1, slot.String())
		assert.NotEqual(t, uuid.Nil, r.Wearables[slot][0].ItemID)
		assert.NotEqual(t, uuid.Nil, r.Wearables[slot][0].AssetID)
	}
	assert.Empty(t, r.Wearables[WearableShoes])

	r.Textures[BakeEyes] = uuid.New()
	assert.True(t, r.HasRealBakes())
}

func TestRecord_FindItem(t *testing.T) {
	t.Parallel()

	r := NewDefaultRecord()
	item, ok := DefaultItem(WearableHair, 0)
	require.True(t, ok)

	asset, found := r.FindItem(WearableHair, item.ItemID)
	assert.True(t, found)
	assert.Equal(t, item.AssetID, asset)

	_, found = r.FindItem(WearableHair, uuid.New())
	assert.False(t, found)

	_, found = r.FindItem(WearableType(99), item.ItemID)
	assert.False(t, found)
}

func TestBakePositionForFace(t *testing.T) {
	t.Parallel()

	for _, b := range BakePositions() {
		got, ok := BakePositionForFace(b.FaceIndex())
		require.True(t, ok)
		assert.Equal(t, b, got)
	}
	_, ok := BakePositionForFace(0)
	assert.False(t, ok)
	assert.Equal(t, -1, BakePosition(42).FaceIndex())
}

func TestParseWearableType(t *testing.T) {
	t.Parallel()

	w, err := ParseWearableType("skirt")
	require.NoError(t, err)
	assert.Equal(t, WearableSkirt, w)

	_, err = ParseWearableType("cape")
	assert.Error(t, err)
}
