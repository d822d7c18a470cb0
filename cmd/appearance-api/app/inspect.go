package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/avatar"
)

// inspectOutput is the json rendering of a participant's stored data
type inspectOutput struct {
	Participant uuid.UUID               `json:"participant"`
	Appearance  *appearance.Record      `json:"appearance"`
	CacheIndex  []appearance.CacheEntry `json:"cache_index"`
}

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <participant-id>",
		Short: "Print the stored appearance of a participant",
		Long: `Print the appearance, worn items and bake cache index stored for a participant
in the SQLite database named by --config. A participant without a stored
appearance is shown with the default one.`,
		Args: cobra.ExactArgs(1),
		RunE: runInspect,
	}
	addStoreFlags(inspectCmd)
	inspectCmd.Flags().String("format", "", "Output format (json)")
	return inspectCmd
}

func runInspect(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("participant id must be a UUID: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
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

	data, err := store.Avatars().GetAvatar(cmd.Context(), id)
	if err != nil {
		if errors.Is(err, avatar.ErrNotFound) {
			return fmt.Errorf("nothing is stored for participant %s", id)
		}
		return fmt.Errorf("failed to load participant %s: %w", id, err)
	}

	out := inspectOutput{
		Participant: id,
		Appearance:  data.Appearance,
		CacheIndex:  data.CacheIndex().Entries(),
	}
	if out.Appearance == nil {
		out.Appearance = appearance.NewDefaultRecord()
	}
	slices.SortFunc(out.CacheIndex, func(a, b appearance.CacheEntry) int {
		return strings.Compare(a.CacheID.String(), b.CacheID.String())
	})

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	return renderInspect(cmd.OutOrStdout(), out)
}

func renderInspect(w io.Writer, out inspectOutput) error {
	rec := out.Appearance
	_, _ = fmt.Fprintf(w, "Participant %s\nSerial %d, height %.3fm, %d visual params\n\n",
		out.Participant, rec.Serial, rec.Height, len(rec.VisualParams))

	textures := tablewriter.NewWriter(w)
	textures.Header("Bake", "Texture")
	for _, pos := range appearance.BakePositions() {
		id := rec.Textures[pos]
		if appearance.IsUnset(id) {
			continue
		}
		label := id.String()
		if appearance.IsDefault(id) {
			label += " (default)"
		}
		if err := textures.Append([]string{pos.String(), label}); err != nil {
			return err
		}
	}
	if err := textures.Render(); err != nil {
		return err
	}

	wearables := tablewriter.NewWriter(w)
	wearables.Header("Slot", "Layer", "Item", "Asset")
	for slot := appearance.WearableType(0); slot < appearance.NumWearableTypes; slot++ {
		for layer, item := range rec.Wearables[slot] {
			row := []string{slot.String(), strconv.Itoa(layer), item.ItemID.String(), item.AssetID.String()}
			if err := wearables.Append(row); err != nil {
				return err
			}
		}
	}
	if err := wearables.Render(); err != nil {
		return err
	}

	cache := tablewriter.NewWriter(w)
	cache.Header("Cache ID", "Baked Asset")
	for _, entry := range out.CacheIndex {
		if err := cache.Append([]string{entry.CacheID.String(), entry.AssetID.String()}); err != nil {
			return err
		}
	}
	return cache.Render()
}
