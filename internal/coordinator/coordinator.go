package coordinator

//go:generate mockgen -destination=mocks/mock_coordinator.go -package=mocks -source=coordinator.go Coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/avatar"
	"github.com/stacklok/appearance-server/internal/bake"
	"github.com/stacklok/appearance-server/internal/coalescer"
	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/inventory"
	"github.com/stacklok/appearance-server/internal/otel"
	"github.com/stacklok/appearance-server/internal/presence"
	"github.com/stacklok/appearance-server/internal/telemetry"
	"github.com/stacklok/appearance-server/internal/wearable"
	"github.com/stacklok/appearance-server/internal/workerpool"
)

var (
	// ErrSessionNotFound is returned for a participant that is not connected
	ErrSessionNotFound = errors.New("participant session not found")
	// ErrSessionExists is returned when connecting a participant twice
	ErrSessionExists = errors.New("participant session already exists")
	// ErrNotStarted is returned when connecting before Start or after Stop
	ErrNotStarted = errors.New("appearance coordinator is not running")
)

// WornItem is one entry of a "now wearing" update
type WornItem struct {
	Type   appearance.WearableType `json:"type"`
	ItemID uuid.UUID               `json:"item_id"`
}

// SetAppearanceRequest carries the parts of an appearance update the viewer sent.
// Nil fields are left untouched.
type SetAppearanceRequest struct {
	Textures      *appearance.TextureSet         `json:"textures,omitempty"`
	VisualParams  []byte                         `json:"visual_params,omitempty"`
	WearableCache []appearance.WearableCacheHint `json:"wearable_cache,omitempty"`
}

// Coordinator owns the appearance of every connected participant and reacts to their
// updates.
type Coordinator interface {
	// Start creates the background workers and the deferred update driver
	Start(ctx context.Context) error
	// Stop flushes pending saves, drops pending sends and waits for background work
	Stop(ctx context.Context) error
	// CheckReadiness returns ErrNotStarted unless the coordinator accepts sessions
	CheckReadiness(ctx context.Context) error

	// Connect loads a participant's stored appearance and cache index
	Connect(ctx context.Context, id uuid.UUID) error
	// Disconnect ends a participant's session. Pending work for it is discarded.
	Disconnect(ctx context.Context, id uuid.UUID) error

	// SetAppearance applies new baked textures and visual params
	SetAppearance(ctx context.Context, id uuid.UUID, req SetAppearanceRequest) error
	// AvatarIsWearing replaces the items worn in each mentioned slot
	AvatarIsWearing(ctx context.Context, id uuid.UUID, items []WornItem) error
	// AgentCachedTexturesRequest answers which bakes the server already knows
	AgentCachedTexturesRequest(
		ctx context.Context, id uuid.UUID, reqs []appearance.CachedTextureRequest,
	) ([]appearance.CachedTextureResponse, error)
	// ValidateBakedTextureCache checks the participant's bakes against the asset store
	ValidateBakedTextureCache(ctx context.Context, id uuid.UUID, rebakeOnMiss bool) bool
	// SendWearables sends the participant its current wearables
	SendWearables(ctx context.Context, id uuid.UUID) error
	// Appearance returns a copy of the participant's current appearance
	Appearance(ctx context.Context, id uuid.UUID) (*appearance.Record, error)
}

// session is the live state of one connected participant
type session struct {
	mu     sync.Mutex
	record *appearance.Record
	cache  *appearance.CacheIndex
	// wearing counts AvatarIsWearing calls so a slow resolution cannot replace the result
	// of a later call
	wearing uint64
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	cfg      *config.AppearanceConfig
	assets   bake.AssetChecker
	avatars  avatar.Service
	presence presence.Broadcaster
	resolver *wearable.Resolver

	clock             clock.WithTicker
	tracer            trace.Tracer
	appearanceMetrics *telemetry.AppearanceMetrics
	coalescerMetrics  *telemetry.CoalescerMetrics

	loads singleflight.Group

	// mu guards the session map and the lifecycle fields. A session's own lock is
	// never taken while mu is held.
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	running  bool
	pool     *workerpool.Pool
	updates  *coalescer.Coalescer
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithAppearanceMetrics sets the session and fallback metrics
func WithAppearanceMetrics(m *telemetry.AppearanceMetrics) Option {
	return func(c *defaultCoordinator) {
		c.appearanceMetrics = m
	}
}

// WithCoalescerMetrics sets the deferred update queue metrics
func WithCoalescerMetrics(m *telemetry.CoalescerMetrics) Option {
	return func(c *defaultCoordinator) {
		c.coalescerMetrics = m
	}
}

// WithTracer sets the tracer used for coordinator spans
func WithTracer(t trace.Tracer) Option {
	return func(c *defaultCoordinator) {
		c.tracer = t
	}
}

// WithClock sets the time source of the deferred update driver
func WithClock(clk clock.WithTicker) Option {
	return func(c *defaultCoordinator) {
		c.clock = clk
	}
}

// New creates a new coordinator with injected dependencies
func New(
	cfg *config.AppearanceConfig,
	assets bake.AssetChecker,
	inv inventory.Service,
	avatars avatar.Service,
	broadcaster presence.Broadcaster,
	opts ...Option,
) Coordinator {
	if cfg == nil {
		cfg = &config.AppearanceConfig{}
	}
	c := &defaultCoordinator{
		cfg:      cfg,
		assets:   assets,
		avatars:  avatars,
		presence: broadcaster,
		clock:    clock.RealClock{},
		sessions: make(map[uuid.UUID]*session),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.resolver = wearable.NewResolver(inv,
		wearable.WithMetrics(c.appearanceMetrics),
		wearable.WithTracer(c.tracer),
	)
	return c
}

// Start creates the worker pool and the deferred update driver. It does not block.
// Background jobs run with a context detached from ctx's cancellation so that Stop can
// still flush saves after ctx ends.
func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running || c.pool != nil {
		return fmt.Errorf("appearance coordinator already started")
	}

	c.pool = workerpool.New(context.WithoutCancel(ctx), c.cfg.GetWorkers(), c.cfg.GetQueueSize())
	c.updates = coalescer.New(c.pool, c.save, c.send,
		coalescer.WithClock(c.clock),
		coalescer.WithSweepInterval(c.cfg.GetSweepInterval()),
		coalescer.WithMetrics(c.coalescerMetrics),
	)
	c.running = true

	slog.Info("Appearance coordinator started",
		"workers", c.cfg.GetWorkers(),
		"save_delay", c.cfg.GetSaveDelay(),
		"send_delay", c.cfg.GetSendDelay(),
		"sweep_interval", c.cfg.GetSweepInterval())
	return nil
}

// Stop halts the update driver, persists every pending save right away, drops pending
// sends, then waits for the worker pool to drain or ctx to end.
func (c *defaultCoordinator) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	pool, updates := c.pool, c.updates
	c.mu.Unlock()

	slog.Info("Stopping appearance coordinator")
	stopErr := updates.Stop(ctx)
	if stopErr != nil {
		slog.Warn("Appearance update driver still running, flushing saves anyway", "error", stopErr)
	}

	saves := updates.TakeAll(coalescer.KindSave)
	for _, id := range saves {
		c.submit(ctx, pool, c.saveJob(id))
	}
	if dropped := updates.TakeAll(coalescer.KindSend); len(dropped) > 0 {
		slog.Info("Dropping pending appearance sends on shutdown", "count", len(dropped))
	}

	if err := pool.Drain(ctx); err != nil {
		return errors.Join(stopErr, fmt.Errorf("failed to drain appearance workers: %w", err))
	}
	if stopErr != nil {
		return stopErr
	}
	slog.Info("Appearance coordinator stopped", "flushed_saves", len(saves))
	return nil
}

func (c *defaultCoordinator) CheckReadiness(_ context.Context) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.running {
		return ErrNotStarted
	}
	return nil
}

// Connect opens a session for id, loading its stored appearance or the default one.
func (c *defaultCoordinator) Connect(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.Connect", otel.ParticipantAttributes(id))
	defer span.End()

	c.mu.RLock()
	running := c.running
	_, exists := c.sessions[id]
	c.mu.RUnlock()
	if !running {
		return ErrNotStarted
	}
	if exists {
		return ErrSessionExists
	}

	v, _, _ := c.loads.Do(id.String(), func() (any, error) {
		return c.load(ctx, id), nil
	})
	loaded := v.(*session)
	s := &session{record: loaded.record.Clone(), cache: appearance.NewCacheIndex()}
	s.cache.Merge(loaded.cache.Entries())

	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return ErrNotStarted
	}
	if _, ok := c.sessions[id]; ok {
		c.mu.Unlock()
		return ErrSessionExists
	}
	c.sessions[id] = s
	c.mu.Unlock()

	if tracker, ok := c.presence.(presence.SessionTracker); ok {
		tracker.Open(id)
	}
	c.appearanceMetrics.SessionOpened(ctx)
	slog.Info("Participant connected",
		"participant", id,
		"serial", s.record.Serial,
		"cached_bakes", s.cache.Len())
	return nil
}

// load reads the stored avatar data. Missing or unreadable data yields the default
// appearance and an empty cache index.
func (c *defaultCoordinator) load(ctx context.Context, id uuid.UUID) *session {
	data, err := c.avatars.GetAvatar(ctx, id)
	if err != nil {
		if !errors.Is(err, avatar.ErrNotFound) {
			slog.Error("Failed to load avatar data, using default appearance", "participant", id, "error", err)
		}
		return &session{record: appearance.NewDefaultRecord(), cache: appearance.NewCacheIndex()}
	}

	rec := data.Appearance
	if rec == nil {
		slog.Debug("No stored appearance, using default", "participant", id)
		rec = appearance.NewDefaultRecord()
	}
	return &session{record: rec, cache: data.CacheIndex()}
}

// Disconnect closes the session for id. Queued saves and sends for it are left for the
// sweep, which drops them.
func (c *defaultCoordinator) Disconnect(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	_, ok := c.sessions[id]
	delete(c.sessions, id)
	c.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if tracker, ok := c.presence.(presence.SessionTracker); ok {
		tracker.Close(id)
	}
	c.appearanceMetrics.SessionClosed(ctx)
	slog.Info("Participant disconnected", "participant", id)
	return nil
}

func (c *defaultCoordinator) session(id uuid.UUID) (*session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	return s, ok
}

// current reports whether s is still the live session for id
func (c *defaultCoordinator) current(id uuid.UUID, s *session) bool {
	live, ok := c.session(id)
	return ok && live == s
}

func (c *defaultCoordinator) runtime() (*workerpool.Pool, *coalescer.Coalescer) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool, c.updates
}

// SetAppearance applies the textures and visual params of req. Changed textures are
// validated in the background and their cache hints recorded; changed visual params
// update the height at once. Any change arms a save; a send is armed either way.
func (c *defaultCoordinator) SetAppearance(ctx context.Context, id uuid.UUID, req SetAppearanceRequest) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.SetAppearance", otel.ParticipantAttributes(id))
	defer span.End()

	s, ok := c.session(id)
	if !ok {
		slog.Warn("Appearance update for unknown participant", "participant", id)
		return ErrSessionNotFound
	}

	s.mu.Lock()
	texturesChanged := req.Textures != nil && s.record.SetTextures(*req.Textures)
	paramsChanged := req.VisualParams != nil && s.record.SetVisualParams(req.VisualParams)
	if texturesChanged || paramsChanged {
		s.record.Serial++
	}
	textures := s.record.Textures
	height := s.record.Height
	serial := s.record.Serial
	s.mu.Unlock()

	span.SetAttributes(otel.AttrSerial.Int(serial))
	slog.Debug("Appearance update",
		"participant", id,
		"textures_changed", texturesChanged,
		"params_changed", paramsChanged,
		"serial", serial)

	pool, updates := c.runtime()
	if texturesChanged {
		hints := append([]appearance.WearableCacheHint(nil), req.WearableCache...)
		c.trySubmit(pool, workerpool.Job{
			Name: fmt.Sprintf("validate-bakes/%s", id),
			Run: func(ctx context.Context) error {
				return c.validateAndRecord(ctx, id, s, textures, hints)
			},
		})
	}
	if paramsChanged && height > 0 {
		c.presence.SetHeight(ctx, id, height)
	}
	if texturesChanged || paramsChanged {
		updates.Schedule(coalescer.KindSave, id, c.cfg.GetSaveDelay())
	}
	updates.Schedule(coalescer.KindSend, id, c.cfg.GetSendDelay())
	return nil
}

// validateAndRecord checks a texture snapshot, requesting rebakes for misses, then adds
// the viewer's cache hints to the session's index and persists it. Results for a
// session that has since ended are discarded.
func (c *defaultCoordinator) validateAndRecord(
	ctx context.Context,
	id uuid.UUID,
	s *session,
	textures appearance.TextureSet,
	hints []appearance.WearableCacheHint,
) error {
	res := bake.Validate(ctx, textures, c.assets, bake.Options{
		RebakeOnMiss:  true,
		OnMissing:     c.rebakeIfCurrent(id, s),
		ParticipantID: id,
		Tracer:        c.tracer,
	})
	c.appearanceMetrics.RecordBakeMisses(ctx, len(res.Missing), true)

	if !c.current(id, s) {
		slog.Debug("Discarding bake check for ended session", "participant", id)
		return nil
	}

	entries := appearance.CacheEntries(hints, textures)
	if s.cache.Merge(entries) == 0 {
		return nil
	}
	if err := c.avatars.CacheWearableData(ctx, id, s.cache); err != nil {
		return fmt.Errorf("failed to store cached wearables for %s: %w", id, err)
	}
	slog.Debug("Stored cached wearables", "participant", id, "entries", s.cache.Len())
	return nil
}

func (c *defaultCoordinator) rebakeIfCurrent(id uuid.UUID, s *session) bake.MissingFunc {
	return func(ctx context.Context, _ appearance.BakePosition, textureID uuid.UUID) {
		if c.current(id, s) {
			c.presence.RequestRebake(ctx, id, textureID)
		}
	}
}

// AvatarIsWearing replaces the items of every slot mentioned in items, keeping the asset
// already bound to an item that stays worn, then resolves the result against the
// participant's inventory. Slots not mentioned keep their items. Nothing is saved or
// sent. When calls overlap, the latest call wins and earlier ones are discarded.
func (c *defaultCoordinator) AvatarIsWearing(ctx context.Context, id uuid.UUID, items []WornItem) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.AvatarIsWearing",
		otel.ParticipantAttributes(id, otel.AttrResultCount.Int(len(items))))
	defer span.End()

	s, ok := c.session(id)
	if !ok {
		slog.Warn("Wearing update for unknown participant", "participant", id)
		return ErrSessionNotFound
	}

	s.mu.Lock()
	rec := s.record.Clone()
	s.wearing++
	seq := s.wearing
	s.mu.Unlock()

	var mentioned [appearance.NumWearableTypes]bool
	var worn appearance.WearableSet
	for _, it := range items {
		if !it.Type.Valid() {
			slog.Warn("Ignoring worn item with unknown wearable type",
				"participant", id,
				"item", it.ItemID,
				"type", int(it.Type))
			continue
		}
		asset, _ := rec.FindItem(it.Type, it.ItemID)
		mentioned[it.Type] = true
		worn[it.Type] = append(worn[it.Type], appearance.Item{ItemID: it.ItemID, AssetID: asset})
	}
	for slot := range worn {
		if mentioned[slot] {
			rec.SetWearable(appearance.WearableType(slot), worn[slot])
		}
	}

	c.resolver.Resolve(ctx, id, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !c.current(id, s) {
		slog.Debug("Discarding wearables for ended session", "participant", id)
		return nil
	}
	if s.wearing != seq {
		slog.Debug("Discarding wearables superseded by a later update", "participant", id)
		return nil
	}
	s.record.Wearables = rec.Wearables
	s.record.Serial++
	span.SetAttributes(otel.AttrSerial.Int(s.record.Serial))
	return nil
}

// AgentCachedTexturesRequest answers each request from the session's cache index and
// sends the answer to the participant. A miss answers uuid.Nil.
func (c *defaultCoordinator) AgentCachedTexturesRequest(
	ctx context.Context,
	id uuid.UUID,
	reqs []appearance.CachedTextureRequest,
) ([]appearance.CachedTextureResponse, error) {
	s, ok := c.session(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	resp := make([]appearance.CachedTextureResponse, len(reqs))
	hits := 0
	for i, r := range reqs {
		resp[i].TextureIndex = r.TextureIndex
		if tex, found := s.cache.Lookup(r.CacheID); found {
			resp[i].TextureID = tex
			hits++
		}
	}
	slog.Debug("Answered cached texture request", "participant", id, "requested", len(reqs), "hits", hits)

	c.presence.SendCachedTextures(ctx, id, resp)
	return resp, nil
}

// ValidateBakedTextureCache checks the participant's current bakes. With rebakeOnMiss
// false it answers false at the first missing bake. With rebakeOnMiss true every bake is
// checked, a rebake is requested for each miss, and the answer is whether any real bake
// is referenced. An unknown participant answers false.
func (c *defaultCoordinator) ValidateBakedTextureCache(ctx context.Context, id uuid.UUID, rebakeOnMiss bool) bool {
	s, ok := c.session(id)
	if !ok {
		slog.Warn("Bake check for unknown participant", "participant", id)
		return false
	}

	s.mu.Lock()
	textures := s.record.Textures
	s.mu.Unlock()

	opts := bake.Options{
		RebakeOnMiss:  rebakeOnMiss,
		ParticipantID: id,
		Tracer:        c.tracer,
	}
	if rebakeOnMiss {
		opts.OnMissing = c.rebakeIfCurrent(id, s)
	}
	res := bake.Validate(ctx, textures, c.assets, opts)
	c.appearanceMetrics.RecordBakeMisses(ctx, len(res.Missing), rebakeOnMiss)
	return res.Valid()
}

// SendWearables sends the participant its worn items and current serial
func (c *defaultCoordinator) SendWearables(ctx context.Context, id uuid.UUID) error {
	s, ok := c.session(id)
	if !ok {
		return ErrSessionNotFound
	}

	s.mu.Lock()
	wearables := s.record.Wearables.Clone()
	serial := s.record.Serial
	s.mu.Unlock()

	c.presence.SendWearables(ctx, id, wearables, serial)
	return nil
}

// Appearance returns a copy of the participant's record
func (c *defaultCoordinator) Appearance(_ context.Context, id uuid.UUID) (*appearance.Record, error) {
	s, ok := c.session(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone(), nil
}

func (c *defaultCoordinator) snapshot(id uuid.UUID) (*appearance.Record, bool) {
	s, ok := c.session(id)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Clone(), true
}

// save persists the participant's appearance. A session that has ended is skipped.
func (c *defaultCoordinator) save(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.save",
		otel.ParticipantAttributes(id, otel.AttrActionKind.String(coalescer.KindSave.String())))
	defer span.End()

	rec, ok := c.snapshot(id)
	if !ok {
		slog.Debug("Skipping save for ended session", "participant", id)
		return nil
	}
	if err := c.avatars.SetAppearance(ctx, id, rec); err != nil {
		otel.RecordError(span, err)
		c.appearanceMetrics.RecordSaveFailure(ctx)
		return fmt.Errorf("failed to save appearance for %s: %w", id, err)
	}
	slog.Debug("Saved appearance", "participant", id, "serial", rec.Serial)
	return nil
}

// send broadcasts the participant's appearance to itself and everyone else. A session
// that has ended is skipped.
func (c *defaultCoordinator) send(ctx context.Context, id uuid.UUID) error {
	ctx, span := otel.StartSpan(ctx, c.tracer, "coordinator.send",
		otel.ParticipantAttributes(id, otel.AttrActionKind.String(coalescer.KindSend.String())))
	defer span.End()

	rec, ok := c.snapshot(id)
	if !ok {
		slog.Debug("Skipping send for ended session", "participant", id)
		return nil
	}
	c.presence.SendAppearanceToSelf(ctx, id, rec)
	c.presence.SendAppearanceToOthers(ctx, id, rec)
	return nil
}

func (c *defaultCoordinator) saveJob(id uuid.UUID) workerpool.Job {
	return workerpool.Job{
		Name: fmt.Sprintf("appearance-save/%s", id),
		Run: func(ctx context.Context) error {
			return c.save(ctx, id)
		},
	}
}

// trySubmit queues job without waiting for a worker. A job that finds the queue full is
// dropped.
func (*defaultCoordinator) trySubmit(pool *workerpool.Pool, job workerpool.Job) {
	if pool == nil {
		return
	}
	if err := pool.TrySubmit(job); err != nil {
		slog.Warn("Dropping background job", "job", job.Name, "error", err)
	}
}

func (*defaultCoordinator) submit(ctx context.Context, pool *workerpool.Pool, job workerpool.Job) {
	if pool == nil {
		return
	}
	if err := pool.Submit(ctx, job); err != nil {
		slog.Warn("Failed to queue background job", "job", job.Name, "error", err)
	}
}
