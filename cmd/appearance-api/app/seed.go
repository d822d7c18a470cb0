package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/assets"
	"github.com/stacklok/appearance-server/internal/avatar"
	"github.com/stacklok/appearance-server/internal/inventory"
)

// seedFile is the fixture format accepted by the seed command
type seedFile struct {
	Assets      []seedAsset     `yaml:"assets"`
	Inventories []seedInventory `yaml:"inventories"`
	Avatars     []seedAvatar    `yaml:"avatars"`
}

type seedAsset struct {
	ID   uuid.UUID `yaml:"id"`
	Type string    `yaml:"type"`
	Name string    `yaml:"name"`
}

type seedInventory struct {
	Owner   uuid.UUID    `yaml:"owner"`
	Folders []seedFolder `yaml:"folders"`
	Items   []seedItem   `yaml:"items"`
}

type seedFolder struct {
	ID     uuid.UUID `yaml:"id"`
	Parent uuid.UUID `yaml:"parent"`
	Name   string    `yaml:"name"`
}

type seedItem struct {
	ID     uuid.UUID `yaml:"id"`
	Folder uuid.UUID `yaml:"folder"`
	Asset  uuid.UUID `yaml:"asset"`
	Type   string    `yaml:"type"`
	Name   string    `yaml:"name"`
}

// seedAvatar stores an appearance whose wearables are keyed by slot name
type seedAvatar struct {
	Participant uuid.UUID                 `yaml:"participant"`
	Wearables   map[string][]seedWornItem `yaml:"wearables"`
}

type seedWornItem struct {
	Item  uuid.UUID `yaml:"item"`
	Asset uuid.UUID `yaml:"asset"`
}

var assetTypeNames = map[string]assets.Type{
	"texture":  assets.TypeTexture,
	"bodypart": assets.TypeBodypart,
	"clothing": assets.TypeClothing,
}

// parseAssetType accepts a type name or its numeric value
func parseAssetType(s string) (assets.Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if t, ok := assetTypeNames[s]; ok {
		return t, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unknown asset type %q", s)
	}
	return assets.Type(n), nil
}

func newSeedCmd() *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Load assets, inventory and avatars into the database",
		Long: `Load a YAML fixture into the SQLite database named by --config.

The fixture may list assets, per-owner inventories (folders and items) and avatars
whose wearables are keyed by slot name. Existing rows with the same ids are replaced.
The fixture is read from standard input when no file is given or the file is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSeed,
	}
	addStoreFlags(seedCmd)
	seedCmd.Flags().Bool("dry-run", false, "Validate the fixture and print what would be loaded")
	return seedCmd
}

func runSeed(cmd *cobra.Command, args []string) error {
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		return fmt.Errorf("failed to get dry-run flag: %w", err)
	}

	var reader io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open fixture: %w", err)
		}
		defer f.Close()
		reader = f
	}

	fixture, err := parseSeedFile(reader)
	if err != nil {
		return err
	}

	if dryRun {
		return renderSeedSummary(cmd.OutOrStdout(), fixture)
	}

	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("Error closing database", "error", err)
		}
	}()

	if err := applySeed(cmd.Context(), store.Assets(), store.Inventory(), store.Avatars(), fixture); err != nil {
		return err
	}
	return renderSeedSummary(cmd.OutOrStdout(), fixture)
}

// parseSeedFile decodes and validates a fixture
func parseSeedFile(r io.Reader) (*seedFile, error) {
	var fixture seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&fixture); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse fixture: %w", err)
	}

	var errs []error
	for i, a := range fixture.Assets {
		if a.ID == uuid.Nil {
			errs = append(errs, fmt.Errorf("assets[%d]: id is required", i))
		}
		if _, err := parseAssetType(a.Type); err != nil {
			errs = append(errs, fmt.Errorf("assets[%d]: %w", i, err))
		}
	}
	for i, inv := range fixture.Inventories {
		if inv.Owner == uuid.Nil {
			errs = append(errs, fmt.Errorf("inventories[%d]: owner is required", i))
		}
		for j, item := range inv.Items {
			if item.ID == uuid.Nil || item.Folder == uuid.Nil {
				errs = append(errs, fmt.Errorf("inventories[%d].items[%d]: id and folder are required", i, j))
			}
			if _, err := parseAssetType(item.Type); err != nil {
				errs = append(errs, fmt.Errorf("inventories[%d].items[%d]: %w", i, j, err))
			}
		}
	}
	for i, av := range fixture.Avatars {
		if av.Participant == uuid.Nil {
			errs = append(errs, fmt.Errorf("avatars[%d]: participant is required", i))
		}
		for slot := range av.Wearables {
			if _, err := appearance.ParseWearableType(slot); err != nil {
				errs = append(errs, fmt.Errorf("avatars[%d]: %w", i, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &fixture, nil
}

// applySeed writes a validated fixture. Folders are created in fixture order, so
// parents must be listed before their children.
func applySeed(
	ctx context.Context,
	assetStore assets.Store,
	inventoryStore inventory.Store,
	avatars avatar.Service,
	fixture *seedFile,
) error {
	for _, a := range fixture.Assets {
		t, _ := parseAssetType(a.Type)
		if err := assetStore.Put(ctx, &assets.Asset{ID: a.ID, Type: t, Name: a.Name}); err != nil {
			return fmt.Errorf("failed to store asset %s: %w", a.ID, err)
		}
	}

	for _, inv := range fixture.Inventories {
		for _, f := range inv.Folders {
			folder := &inventory.Folder{ID: f.ID, OwnerID: inv.Owner, ParentID: f.Parent, Name: f.Name}
			if err := inventoryStore.CreateFolder(ctx, folder); err != nil {
				return fmt.Errorf("failed to create folder %s for %s: %w", f.ID, inv.Owner, err)
			}
		}
		for _, it := range inv.Items {
			t, _ := parseAssetType(it.Type)
			item := &inventory.Item{
				ID:        it.ID,
				OwnerID:   inv.Owner,
				FolderID:  it.Folder,
				AssetID:   it.Asset,
				AssetType: int(t),
				Name:      it.Name,
			}
			if err := inventoryStore.AddItem(ctx, item); err != nil {
				return fmt.Errorf("failed to add item %s for %s: %w", it.ID, inv.Owner, err)
			}
		}
	}

	for _, av := range fixture.Avatars {
		record := appearance.NewDefaultRecord()
		for slot, items := range av.Wearables {
			st, _ := appearance.ParseWearableType(slot)
			worn := make(appearance.Wearable, 0, len(items))
			for _, it := range items {
				worn = append(worn, appearance.Item{ItemID: it.Item, AssetID: it.Asset})
			}
			record.SetWearable(st, worn)
		}
		if err := avatars.SetAppearance(ctx, av.Participant, record); err != nil {
			return fmt.Errorf("failed to store appearance for %s: %w", av.Participant, err)
		}
	}

	slog.Info("Fixture loaded",
		"assets", len(fixture.Assets),
		"inventories", len(fixture.Inventories),
		"avatars", len(fixture.Avatars))
	return nil
}

// renderSeedSummary prints one row per fixture section
func renderSeedSummary(w io.Writer, fixture *seedFile) error {
	var folders, items, wearables int
	for _, inv := range fixture.Inventories {
		folders += len(inv.Folders)
		items += len(inv.Items)
	}
	for _, av := range fixture.Avatars {
		for _, slot := range av.Wearables {
			wearables += len(slot)
		}
	}

	table := tablewriter.NewWriter(w)
	table.Header("Section", "Entries", "Details")
	rows := [][]string{
		{"assets", strconv.Itoa(len(fixture.Assets)), ""},
		{"inventories", strconv.Itoa(len(fixture.Inventories)), fmt.Sprintf("%d folders, %d items", folders, items)},
		{"avatars", strconv.Itoa(len(fixture.Avatars)), fmt.Sprintf("%d worn items", wearables)},
	}
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to render summary: %w", err)
	}
	return table.Render()
}
