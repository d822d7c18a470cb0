// Package wearable binds the items a participant wears to the assets they reference.
package wearable

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/inventory"
	"github.com/stacklok/appearance-server/internal/otel"
	"github.com/stacklok/appearance-server/internal/telemetry"
)

const (
	fallbackNoInventory = "no_inventory"
	fallbackItemMissing = "item_missing"
)

// Resolver looks up worn items in the owner's inventory and falls back to the default
// outfit for anything it cannot resolve.
type Resolver struct {
	inventory inventory.Service
	metrics   *telemetry.AppearanceMetrics
	tracer    trace.Tracer
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMetrics sets the metrics the resolver reports fallbacks to
func WithMetrics(m *telemetry.AppearanceMetrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// WithTracer sets the tracer used for resolution spans
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) {
		r.tracer = t
	}
}

// NewResolver creates a resolver backed by the given inventory
func NewResolver(inv inventory.Service, opts ...Option) *Resolver {
	r := &Resolver{inventory: inv}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve binds every wearable entry of rec to an asset, in place, and returns rec.
//
// Entries matching the default item at their slot position take the default asset.
// Other entries are looked up in the owner's inventory; entries that cannot be found are
// replaced by the default item for that position, or dropped when the slot has none.
// An owner without a root folder gets the complete default outfit.
func (r *Resolver) Resolve(ctx context.Context, owner uuid.UUID, rec *appearance.Record) *appearance.Record {
	ctx, span := otel.StartSpan(ctx, r.tracer, "wearable.Resolve", otel.ParticipantAttributes(owner))
	defer span.End()

	root, err := r.inventory.GetRootFolder(ctx, owner)
	if err != nil || root == nil {
		if err != nil && !errors.Is(err, inventory.ErrNotFound) {
			otel.RecordError(span, err)
			slog.Error("Failed to load root folder", "participant", owner, "error", err)
		}
		slog.Warn("Participant has no inventory, setting appearance to default", "participant", owner)
		rec.Wearables = appearance.DefaultWearables()
		r.metrics.RecordWearableFallback(ctx, fallbackNoInventory, 1)
		return rec
	}

	fallbacks := 0
	for slot := appearance.WearableType(0); slot < appearance.NumWearableTypes; slot++ {
		var n int
		rec.Wearables[slot], n = r.resolveSlot(ctx, owner, slot, rec.Wearables[slot])
		fallbacks += n
	}
	r.metrics.RecordWearableFallback(ctx, fallbackItemMissing, fallbacks)
	span.SetAttributes(otel.AttrResultCount.Int(fallbacks))
	return rec
}

func (r *Resolver) resolveSlot(
	ctx context.Context,
	owner uuid.UUID,
	slot appearance.WearableType,
	items appearance.Wearable,
) (appearance.Wearable, int) {
	if len(items) == 0 {
		return items, 0
	}

	out := make(appearance.Wearable, 0, len(items))
	fallbacks := 0
	for pos, it := range items {
		if it.ItemID == uuid.Nil {
			continue
		}

		def, hasDefault := appearance.DefaultItem(slot, pos)
		if hasDefault && it.ItemID == def.ItemID {
			out = put(out, appearance.Item{ItemID: it.ItemID, AssetID: def.AssetID})
			continue
		}

		inv, err := r.inventory.GetItem(ctx, owner, it.ItemID)
		if err == nil && inv != nil && inv.AssetID != uuid.Nil {
			out = put(out, appearance.Item{ItemID: it.ItemID, AssetID: inv.AssetID})
			continue
		}

		fallbacks++
		slog.Error("Can't find inventory item, setting to default",
			"participant", owner,
			"item", it.ItemID,
			"slot", slot.String(),
			"error", err)
		if hasDefault {
			out = put(out, def)
		}
	}
	return out, fallbacks
}

// put adds item, replacing an existing entry with the same item id
func put(items appearance.Wearable, item appearance.Item) appearance.Wearable {
	for i := range items {
		if items[i].ItemID == item.ItemID {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}
