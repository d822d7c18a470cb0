package appearance

import (
	"fmt"

	"github.com/google/uuid"
)

// BakePosition identifies one of the composite textures the viewer bakes from worn layers.
type BakePosition int

const (
	// BakeHead is the baked head texture
	BakeHead BakePosition = iota
	// BakeUpperBody is the baked upper body texture
	BakeUpperBody
	// BakeLowerBody is the baked lower body texture
	BakeLowerBody
	// BakeEyes is the baked eyes texture
	BakeEyes
	// BakeSkirt is the baked skirt texture
	BakeSkirt
	// BakeHair is the baked hair texture
	BakeHair

	// NumBakePositions is the number of bake positions
	NumBakePositions = 6
)

// DefaultAvatarTexture is the well-known placeholder texture the viewer shows when nothing is baked.
var DefaultAvatarTexture = uuid.MustParse("c228d1cf-4b5d-4ba8-84f4-899a0796aa97")

// faceIndices maps each bake position to the texture face index used by viewers.
var faceIndices = [NumBakePositions]int{8, 9, 10, 11, 19, 20}

var bakeNames = [NumBakePositions]string{"head", "upper_body", "lower_body", "eyes", "skirt", "hair"}

// BakePositions lists every bake position in order.
func BakePositions() []BakePosition {
	return []BakePosition{BakeHead, BakeUpperBody, BakeLowerBody, BakeEyes, BakeSkirt, BakeHair}
}

// String returns the lowercase name of the position
func (b BakePosition) String() string {
	if !b.Valid() {
		return fmt.Sprintf("bake(%d)", int(b))
	}
	return bakeNames[b]
}

// Valid reports whether b names a known bake position
func (b BakePosition) Valid() bool {
	return b >= 0 && b < NumBakePositions
}

// FaceIndex returns the viewer texture face index for the position.
func (b BakePosition) FaceIndex() int {
	if !b.Valid() {
		return -1
	}
	return faceIndices[b]
}

// BakePositionForFace maps a viewer texture face index back to its bake position.
func BakePositionForFace(face int) (BakePosition, bool) {
	for i, f := range faceIndices {
		if f == face {
			return BakePosition(i), true
		}
	}
	return 0, false
}

// TextureSet holds the baked texture asset id for every bake position.
// uuid.Nil marks a position with no bake assigned.
type TextureSet [NumBakePositions]uuid.UUID

// IsUnset reports whether the slot carries neither a bake nor the default placeholder
func IsUnset(id uuid.UUID) bool {
	return id == uuid.Nil
}

// IsDefault reports whether id is the default placeholder texture
func IsDefault(id uuid.UUID) bool {
	return id == DefaultAvatarTexture
}
