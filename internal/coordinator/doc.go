// Package coordinator owns the appearance of connected participants and orchestrates the
// background work their updates cause.
//
// It sits on top of the appearance domain packages and handles:
//
//   - Session lifecycle (Connect loads the stored appearance and bake cache index)
//   - Per-participant locking of the live appearance record
//   - Background bake validation on a bounded worker pool
//   - Deferred saves and sends through the update coalescer
//   - Graceful shutdown
//
// # Architecture
//
// The coordinator separates concerns between:
//
//   - internal/appearance, internal/bake, internal/wearable: domain logic (records, bake
//     checks, wearable resolution)
//   - internal/coalescer and internal/workerpool: scheduling and execution of deferred work
//   - internal/coordinator: orchestration (sessions, locking, lifecycle)
//   - internal/api: HTTP ingress calling the Coordinator interface
//
// # Usage Example
//
//	coord := coordinator.New(cfg.GetAppearance(), assetStore, inventoryStore, avatars, hub)
//	if err := coord.Start(ctx); err != nil {
//	    return err
//	}
//	defer coord.Stop(shutdownCtx)
//
//	_ = coord.Connect(ctx, participantID)
//	_ = coord.SetAppearance(ctx, participantID, coordinator.SetAppearanceRequest{Textures: &textures})
//
// # Thread Safety
//
// Every session carries its own mutex, so updates for different participants never
// contend. Bake validation and wearable resolution run on snapshots taken under that
// mutex; their results are committed only if the session is still the live one for the
// participant.
//
// # Error Handling
//
// Operations fail only for an unknown participant. Everything else degrades:
//
//   - Unreadable stored data falls back to the default appearance
//   - Missing bakes trigger rebake requests
//   - Unresolvable wearables fall back to the default outfit
//   - Failed saves are logged and counted, never retried
package coordinator
