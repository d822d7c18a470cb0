package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/stacklok/appearance-server/internal/assets"
	"github.com/stacklok/appearance-server/internal/otel"
)

// AssetStore implements assets.Store on SQLite
type AssetStore struct {
	store *Store
}

var _ assets.Store = (*AssetStore)(nil)

// Exists reports whether the asset row is present
func (a *AssetStore) Exists(ctx context.Context, id uuid.UUID) (found bool, err error) {
	ctx, span := otel.StartSpan(ctx, a.store.tracer, "sqlite.assets.Exists",
		tracerAttrs(attribute.String("asset.id", id.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := a.store.conn(ctx)
	if err != nil {
		return false, err
	}
	var one int
	err = db.QueryRowContext(ctx, `SELECT 1 FROM assets WHERE id = ?`, id.String()).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check asset %s: %w", id, err)
	}
	return true, nil
}

// Get loads an asset, or returns assets.ErrNotFound
func (a *AssetStore) Get(ctx context.Context, id uuid.UUID) (asset *assets.Asset, err error) {
	ctx, span := otel.StartSpan(ctx, a.store.tracer, "sqlite.assets.Get",
		tracerAttrs(attribute.String("asset.id", id.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := a.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	out := &assets.Asset{ID: id}
	var assetType int
	err = db.QueryRowContext(ctx,
		`SELECT asset_type, name, data, created_at FROM assets WHERE id = ?`, id.String(),
	).Scan(&assetType, &out.Name, &out.Data, &out.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, assets.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load asset %s: %w", id, err)
	}
	out.Type = assets.Type(assetType)
	return out, nil
}

// Put inserts or replaces an asset
func (a *AssetStore) Put(ctx context.Context, asset *assets.Asset) (err error) {
	if asset == nil || asset.ID == uuid.Nil {
		return errors.New("asset id is required")
	}
	ctx, span := otel.StartSpan(ctx, a.store.tracer, "sqlite.assets.Put",
		tracerAttrs(attribute.String("asset.id", asset.ID.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := a.store.conn(ctx)
	if err != nil {
		return err
	}
	createdAt := asset.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = db.ExecContext(ctx, `
INSERT INTO assets (id, asset_type, name, data, created_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    asset_type = excluded.asset_type,
    name = excluded.name,
    data = excluded.data`,
		asset.ID.String(), int(asset.Type), asset.Name, asset.Data, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store asset %s: %w", asset.ID, err)
	}
	return nil
}
