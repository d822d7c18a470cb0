// Package bake checks that the baked textures an appearance refers to are present
// in the asset store.
package bake

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/otel"
)

// Status is the outcome of checking one bake position
type Status int

const (
	// StatusUnchecked means validation stopped before reaching the slot
	StatusUnchecked Status = iota
	// StatusSkipped means the slot is unset or holds the default texture
	StatusSkipped
	// StatusPresent means the baked asset exists
	StatusPresent
	// StatusMissing means the asset is absent or could not be looked up
	StatusMissing
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusPresent:
		return "present"
	case StatusMissing:
		return "missing"
	default:
		return "unchecked"
	}
}

// AssetChecker reports whether an asset exists.
type AssetChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// MissingFunc is called for every missing bake when rebakes are requested
type MissingFunc func(ctx context.Context, position appearance.BakePosition, textureID uuid.UUID)

// Options controls a validation run
type Options struct {
	// RebakeOnMiss checks every slot and calls OnMissing for each miss. When false,
	// validation stops at the first miss.
	RebakeOnMiss bool
	OnMissing    MissingFunc
	// ParticipantID is only used for logging and tracing
	ParticipantID uuid.UUID
	Tracer        trace.Tracer
}

// Result describes a validation run
type Result struct {
	Slots [appearance.NumBakePositions]Status
	// Missing lists the positions whose asset was not found, in slot order
	Missing []appearance.BakePosition
	// DefaultOnly is true when every slot was unset or the default texture
	DefaultOnly bool
	// Complete is false when validation stopped at the first miss
	Complete bool
}

// Valid is the overall answer: true when the appearance references at least one
// real bake and, for a check-only run, none of them is missing.
func (r Result) Valid() bool {
	if !r.Complete {
		return false
	}
	return !r.DefaultOnly
}

// Validate checks every bake position of textures against the asset store.
// A lookup error counts as a miss.
func Validate(ctx context.Context, textures appearance.TextureSet, checker AssetChecker, opts Options) Result {
	ctx, span := otel.StartSpan(ctx, opts.Tracer, "bake.Validate",
		otel.ParticipantAttributes(opts.ParticipantID, otel.AttrRebakeOnMiss.Bool(opts.RebakeOnMiss)))
	defer span.End()

	res := Result{DefaultOnly: true, Complete: true}
	for _, pos := range appearance.BakePositions() {
		tex := textures[pos]
		if appearance.IsUnset(tex) || appearance.IsDefault(tex) {
			res.Slots[pos] = StatusSkipped
			continue
		}
		res.DefaultOnly = false

		if present(ctx, checker, tex, pos, opts.ParticipantID) {
			res.Slots[pos] = StatusPresent
			continue
		}

		res.Slots[pos] = StatusMissing
		res.Missing = append(res.Missing, pos)
		if !opts.RebakeOnMiss {
			res.Complete = false
			break
		}

		slog.Info("Missing baked texture, requesting rebake",
			"participant", opts.ParticipantID,
			"texture", tex,
			"position", pos.String())
		if opts.OnMissing != nil {
			opts.OnMissing(ctx, pos, tex)
		}
	}

	span.SetAttributes(otel.AttrMissingCount.Int(len(res.Missing)))
	slog.Debug("Completed baked texture check",
		"participant", opts.ParticipantID,
		"missing", len(res.Missing),
		"default_only", res.DefaultOnly)
	return res
}

func present(ctx context.Context, checker AssetChecker, tex uuid.UUID, pos appearance.BakePosition, participant uuid.UUID) bool {
	ok, err := checker.Exists(ctx, tex)
	if err != nil {
		slog.Warn("Baked texture lookup failed",
			"participant", participant,
			"texture", tex,
			"position", pos.String(),
			"error", err)
		return false
	}
	if !ok {
		slog.Warn("Missing baked texture",
			"participant", participant,
			"texture", tex,
			"position", pos.String())
	}
	return ok
}
