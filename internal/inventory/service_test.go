package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	store := NewMemoryStore()
	owner := uuid.New()
	root := &Folder{ID: uuid.New(), OwnerID: owner, Name: "My Inventory"}
	child := &Folder{ID: uuid.New(), OwnerID: owner, ParentID: root.ID, Name: "Clothing"}

	_, err := store.GetRootFolder(ctx, owner)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.CreateFolder(ctx, root))
	require.NoError(t, store.CreateFolder(ctx, child))

	got, err := store.GetRootFolder(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, root.ID, got.ID)
	assert.True(t, got.IsRoot())

	item := &Item{ID: uuid.New(), OwnerID: owner, FolderID: child.ID, AssetID: uuid.New(), Name: "Shirt"}
	require.NoError(t, store.AddItem(ctx, item))

	gotItem, err := store.GetItem(ctx, owner, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.AssetID, gotItem.AssetID)

	// Items are scoped to their owner
	_, err = store.GetItem(ctx, uuid.New(), item.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Errors(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	rootID := uuid.New()

	tests := []struct {
		name    string
		run     func(context.Context, Store) error
		wantErr error
	}{
		{
			name: "folder without owner",
			run: func(ctx context.Context, s Store) error {
				return s.CreateFolder(ctx, &Folder{ID: uuid.New()})
			},
		},
		{
			name: "second root folder",
			run: func(ctx context.Context, s Store) error {
				return s.CreateFolder(ctx, &Folder{ID: uuid.New(), OwnerID: owner})
			},
		},
		{
			name: "missing parent",
			run: func(ctx context.Context, s Store) error {
				return s.CreateFolder(ctx, &Folder{ID: uuid.New(), OwnerID: owner, ParentID: uuid.New()})
			},
			wantErr: ErrNotFound,
		},
		{
			name: "item in missing folder",
			run: func(ctx context.Context, s Store) error {
				return s.AddItem(ctx, &Item{ID: uuid.New(), OwnerID: owner, FolderID: uuid.New()})
			},
			wantErr: ErrNotFound,
		},
		{
			name: "item without id",
			run: func(ctx context.Context, s Store) error {
				return s.AddItem(ctx, &Item{OwnerID: owner, FolderID: rootID})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := NewMemoryStore()
			require.NoError(t, store.CreateFolder(t.Context(), &Folder{ID: rootID, OwnerID: owner}))

			err := tt.run(t.Context(), store)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}
