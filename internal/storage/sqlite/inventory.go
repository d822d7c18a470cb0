package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/stacklok/appearance-server/internal/inventory"
	"github.com/stacklok/appearance-server/internal/otel"
)

// InventoryStore implements inventory.Store on SQLite
type InventoryStore struct {
	store *Store
}

var _ inventory.Store = (*InventoryStore)(nil)

// GetRootFolder returns the folder of owner with no parent
func (i *InventoryStore) GetRootFolder(ctx context.Context, owner uuid.UUID) (folder *inventory.Folder, err error) {
	ctx, span := otel.StartSpan(ctx, i.store.tracer, "sqlite.inventory.GetRootFolder",
		tracerAttrs(otel.AttrParticipantID.String(owner.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := i.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var id string
	out := &inventory.Folder{OwnerID: owner}
	err = db.QueryRowContext(ctx,
		`SELECT id, name FROM inventory_folder WHERE owner_id = ? AND parent_id IS NULL`, owner.String(),
	).Scan(&id, &out.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load root folder for %s: %w", owner, err)
	}
	if out.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid folder id %q: %w", id, err)
	}
	return out, nil
}

// GetItem returns one of owner's items
func (i *InventoryStore) GetItem(ctx context.Context, owner, itemID uuid.UUID) (item *inventory.Item, err error) {
	ctx, span := otel.StartSpan(ctx, i.store.tracer, "sqlite.inventory.GetItem",
		tracerAttrs(otel.AttrParticipantID.String(owner.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := i.store.conn(ctx)
	if err != nil {
		return nil, err
	}
	var folderID, assetID string
	out := &inventory.Item{ID: itemID, OwnerID: owner}
	err = db.QueryRowContext(ctx, `
SELECT folder_id, asset_id, asset_type, name
FROM inventory_item
WHERE owner_id = ? AND id = ?`, owner.String(), itemID.String(),
	).Scan(&folderID, &assetID, &out.AssetType, &out.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inventory.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", itemID, err)
	}
	if out.FolderID, err = uuid.Parse(folderID); err != nil {
		return nil, fmt.Errorf("invalid folder id %q: %w", folderID, err)
	}
	if out.AssetID, err = uuid.Parse(assetID); err != nil {
		return nil, fmt.Errorf("invalid asset id %q: %w", assetID, err)
	}
	return out, nil
}

// CreateFolder inserts a folder. A folder without a parent becomes the owner's root.
func (i *InventoryStore) CreateFolder(ctx context.Context, folder *inventory.Folder) (err error) {
	if folder == nil || folder.ID == uuid.Nil || folder.OwnerID == uuid.Nil {
		return errors.New("folder id and owner are required")
	}
	ctx, span := otel.StartSpan(ctx, i.store.tracer, "sqlite.inventory.CreateFolder",
		tracerAttrs(otel.AttrParticipantID.String(folder.OwnerID.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := i.store.conn(ctx)
	if err != nil {
		return err
	}

	if folder.IsRoot() {
		existing, err := i.GetRootFolder(ctx, folder.OwnerID)
		switch {
		case errors.Is(err, inventory.ErrNotFound):
		case err != nil:
			return err
		case existing.ID != folder.ID:
			return fmt.Errorf("owner %s already has a root folder", folder.OwnerID)
		}
	} else {
		var one int
		err := db.QueryRowContext(ctx,
			`SELECT 1 FROM inventory_folder WHERE owner_id = ? AND id = ?`,
			folder.OwnerID.String(), folder.ParentID.String(),
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("parent folder %s: %w", folder.ParentID, inventory.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to check parent folder: %w", err)
		}
	}

	_, err = db.ExecContext(ctx, `
INSERT INTO inventory_folder (owner_id, id, parent_id, name)
VALUES (?, ?, ?, ?)
ON CONFLICT(owner_id, id) DO UPDATE SET
    parent_id = excluded.parent_id,
    name = excluded.name`,
		folder.OwnerID.String(), folder.ID.String(), nullableID(folder.ParentID), folder.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to store folder %s: %w", folder.ID, err)
	}
	return nil
}

// AddItem inserts or replaces an item in an existing folder
func (i *InventoryStore) AddItem(ctx context.Context, item *inventory.Item) (err error) {
	if item == nil || item.ID == uuid.Nil || item.OwnerID == uuid.Nil {
		return errors.New("item id and owner are required")
	}
	ctx, span := otel.StartSpan(ctx, i.store.tracer, "sqlite.inventory.AddItem",
		tracerAttrs(otel.AttrParticipantID.String(item.OwnerID.String())))
	defer func() {
		otel.RecordError(span, err)
		span.End()
	}()

	db, err := i.store.conn(ctx)
	if err != nil {
		return err
	}

	var one int
	err = db.QueryRowContext(ctx,
		`SELECT 1 FROM inventory_folder WHERE owner_id = ? AND id = ?`,
		item.OwnerID.String(), item.FolderID.String(),
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("folder %s: %w", item.FolderID, inventory.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check folder: %w", err)
	}

	_, err = db.ExecContext(ctx, `
INSERT INTO inventory_item (owner_id, id, folder_id, asset_id, asset_type, name)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(owner_id, id) DO UPDATE SET
    folder_id = excluded.folder_id,
    asset_id = excluded.asset_id,
    asset_type = excluded.asset_type,
    name = excluded.name`,
		item.OwnerID.String(), item.ID.String(), item.FolderID.String(),
		item.AssetID.String(), item.AssetType, item.Name,
	)
	if err != nil {
		return fmt.Errorf("failed to store item %s: %w", item.ID, err)
	}
	return nil
}
