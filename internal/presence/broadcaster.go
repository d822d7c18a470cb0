// Package presence delivers appearance updates to connected participants.
package presence

import (
	"context"

	"github.com/google/uuid"

	"github.com/stacklok/appearance-server/internal/appearance"
)

// Broadcaster pushes appearance state to the owning participant and to observers.
// Delivery is best effort and never reports failure to the caller.
//
//go:generate mockgen -destination=mocks/mock_broadcaster.go -package=mocks -source=broadcaster.go Broadcaster
type Broadcaster interface {
	// SendAppearanceToSelf sends the participant its own appearance
	SendAppearanceToSelf(ctx context.Context, id uuid.UUID, record *appearance.Record)
	// SendAppearanceToOthers sends the participant's appearance to every other observer
	SendAppearanceToOthers(ctx context.Context, id uuid.UUID, record *appearance.Record)
	// SetHeight updates the participant's physical height
	SetHeight(ctx context.Context, id uuid.UUID, height float64)
	// RequestRebake asks the participant's viewer to rebake the given texture
	RequestRebake(ctx context.Context, id uuid.UUID, textureID uuid.UUID)
	// SendCachedTextures answers a cached texture query
	SendCachedTextures(ctx context.Context, id uuid.UUID, responses []appearance.CachedTextureResponse)
	// SendWearables sends the participant its worn items
	SendWearables(ctx context.Context, id uuid.UUID, wearables appearance.WearableSet, serial int)
}
