package coordinator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/stacklok/appearance-server/internal/appearance"
	"github.com/stacklok/appearance-server/internal/assets"
	"github.com/stacklok/appearance-server/internal/avatar"
	avatarmocks "github.com/stacklok/appearance-server/internal/avatar/mocks"
	"github.com/stacklok/appearance-server/internal/coalescer"
	"github.com/stacklok/appearance-server/internal/config"
	"github.com/stacklok/appearance-server/internal/inventory"
	inventorymocks "github.com/stacklok/appearance-server/internal/inventory/mocks"
	"github.com/stacklok/appearance-server/internal/presence"
	presencemocks "github.com/stacklok/appearance-server/internal/presence/mocks"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fixture struct {
	coord   *defaultCoordinator
	clk     *testingclock.FakeClock
	assets  assets.Store
	inv     inventory.Store
	avatars avatar.Service
	hub     *presence.Hub
}

func newFixture(t *testing.T, avatars avatar.Service) *fixture {
	t.Helper()
	if avatars == nil {
		avatars = avatar.NewMemoryService()
	}
	f := &fixture{
		clk:     testingclock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		assets:  assets.NewMemoryStore(),
		inv:     inventory.NewMemoryStore(),
		avatars: avatars,
		hub:     presence.NewHub(),
	}
	cfg := &config.AppearanceConfig{
		SaveDelay:     "5s",
		SendDelay:     "2s",
		SweepInterval: "500ms",
		Workers:       2,
		QueueSize:     16,
	}
	f.coord = New(cfg, f.assets, f.inv, f.avatars, f.hub, WithClock(f.clk)).(*defaultCoordinator)
	require.NoError(t, f.coord.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, f.coord.Stop(context.Background()))
	})
	return f
}

func (f *fixture) connect(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.coord.Connect(context.Background(), id))
	return id
}

// advance steps the fake clock once the update driver is waiting on it
func (f *fixture) advance(t *testing.T, d time.Duration) {
	t.Helper()
	require.Eventually(t, f.clk.HasWaiters, waitFor, tick, "update driver is not running")
	f.clk.Step(d)
}

func (f *fixture) putTexture(t *testing.T) uuid.UUID {
	t.Helper()
	id := uuid.New()
	require.NoError(t, f.assets.Put(context.Background(), &assets.Asset{ID: id, Type: assets.TypeTexture, Name: "bake"}))
	return id
}

// blockingChecker reports every asset as missing, but only once release is closed
type blockingChecker struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func newBlockingChecker() *blockingChecker {
	return &blockingChecker{started: make(chan struct{}, 1), release: make(chan struct{})}
}

func (b *blockingChecker) Exists(context.Context, uuid.UUID) (bool, error) {
	b.calls.Add(1)
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-b.release
	return false, nil
}

func eventsOf(events []presence.Event, kind presence.EventKind) []presence.Event {
	var out []presence.Event
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func TestCoordinator_SessionLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.connect(t)

	assert.ErrorIs(t, f.coord.Connect(ctx, id), ErrSessionExists)

	rec, err := f.coord.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, appearance.NewDefaultRecord(), rec, "nothing stored yields the default appearance")

	_, open := f.hub.Drain(id)
	assert.True(t, open, "connecting opens the participant's outbox")

	require.NoError(t, f.coord.Disconnect(ctx, id))
	assert.ErrorIs(t, f.coord.Disconnect(ctx, id), ErrSessionNotFound)
	_, open = f.hub.Drain(id)
	assert.False(t, open, "disconnecting closes the participant's outbox")

	_, err = f.coord.Appearance(ctx, id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{}), ErrSessionNotFound)
	assert.ErrorIs(t, f.coord.AvatarIsWearing(ctx, id, nil), ErrSessionNotFound)
	assert.ErrorIs(t, f.coord.SendWearables(ctx, id), ErrSessionNotFound)
	_, err = f.coord.AgentCachedTexturesRequest(ctx, id, nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.False(t, f.coord.ValidateBakedTextureCache(ctx, id, true))
}

func TestCoordinator_ConnectRequiresStart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := New(nil, assets.NewMemoryStore(), inventory.NewMemoryStore(), avatar.NewMemoryService(), presence.NewHub())
	assert.ErrorIs(t, c.Connect(ctx, uuid.New()), ErrNotStarted)
	assert.ErrorIs(t, c.CheckReadiness(ctx), ErrNotStarted)
	require.NoError(t, c.Stop(ctx), "stopping an idle coordinator is a no-op")

	require.NoError(t, c.Start(ctx))
	assert.NoError(t, c.CheckReadiness(ctx))
	require.Error(t, c.Start(ctx))
	require.NoError(t, c.Stop(ctx))
	assert.ErrorIs(t, c.CheckReadiness(ctx), ErrNotStarted)
	require.NoError(t, c.Stop(ctx))
	assert.ErrorIs(t, c.Connect(ctx, uuid.New()), ErrNotStarted)
}

func TestCoordinator_ConnectLoadsStoredData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	avatars := avatar.NewMemoryService()
	id := uuid.New()
	stored := appearance.NewDefaultRecord()
	stored.Serial = 41
	stored.Textures[appearance.BakeHead] = uuid.New()
	require.NoError(t, avatars.SetAppearance(ctx, id, stored))

	cacheID, bakeID := uuid.New(), uuid.New()
	index := appearance.NewCacheIndex()
	index.Put(cacheID, bakeID)
	require.NoError(t, avatars.CacheWearableData(ctx, id, index))

	f := newFixture(t, avatars)
	f.hub.Open(id)
	require.NoError(t, f.coord.Connect(ctx, id))

	rec, err := f.coord.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stored, rec)

	resp, err := f.coord.AgentCachedTexturesRequest(ctx, id, []appearance.CachedTextureRequest{
		{TextureIndex: 8, CacheID: cacheID},
	})
	require.NoError(t, err)
	assert.Equal(t, []appearance.CachedTextureResponse{{TextureIndex: 8, TextureID: bakeID}}, resp)
}

func TestCoordinator_ConnectFallsBackOnLoadError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	avatars := avatarmocks.NewMockService(ctrl)
	avatars.EXPECT().GetAvatar(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is locked"))

	f := newFixture(t, avatars)
	id := f.connect(t)

	rec, err := f.coord.Appearance(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, appearance.NewDefaultRecord(), rec)
}

func TestCoordinator_BurstCoalescesToOneSaveAndSend(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	avatars := avatarmocks.NewMockService(ctrl)
	var saved atomic.Pointer[appearance.Record]
	var saves atomic.Int32
	avatars.EXPECT().GetAvatar(gomock.Any(), gomock.Any()).Return(nil, avatar.ErrNotFound).AnyTimes()
	avatars.EXPECT().SetAppearance(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, rec *appearance.Record) error {
			saved.Store(rec)
			saves.Add(1)
			return nil
		}).Times(1)

	f := newFixture(t, avatars)
	ctx := context.Background()
	id := f.connect(t)
	other := f.connect(t)

	for i := 1; i <= 10; i++ {
		require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{VisualParams: []byte{byte(i)}}))
	}
	assert.Equal(t, 1, f.coord.updates.Len(coalescer.KindSave))
	assert.Equal(t, 1, f.coord.updates.Len(coalescer.KindSend))

	f.advance(t, 5*time.Second)

	require.Eventually(t, func() bool { return saves.Load() == 1 }, waitFor, tick)
	assert.Equal(t, 10, saved.Load().Serial)
	assert.Equal(t, []byte{10}, saved.Load().VisualParams)

	var self, others []presence.Event
	require.Eventually(t, func() bool {
		ev, _ := f.hub.Drain(id)
		self = append(self, eventsOf(ev, presence.EventAppearance)...)
		ev, _ = f.hub.Drain(other)
		others = append(others, eventsOf(ev, presence.EventAppearance)...)
		return len(self) == 1 && len(others) == 1
	}, waitFor, tick)
	assert.Equal(t, id, others[0].Subject)
	assert.Equal(t, 10, self[0].Appearance.Serial)
}

func TestCoordinator_UnchangedAppearanceOnlySends(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.connect(t)

	require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{VisualParams: []byte{}}))
	require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{}))

	assert.Zero(t, f.coord.updates.Len(coalescer.KindSave), "nothing changed, nothing to save")
	assert.Equal(t, 1, f.coord.updates.Len(coalescer.KindSend))

	rec, err := f.coord.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Zero(t, rec.Serial)
}

func TestCoordinator_VisualParamsSetHeight(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.connect(t)

	params := make([]byte, 200)
	for i := range params {
		params[i] = 128
	}
	require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{VisualParams: params}))

	height, ok := f.hub.Height(id)
	require.True(t, ok, "height is pushed synchronously")
	assert.InDelta(t, appearance.ComputeHeight(params), height, 1e-9)
	assert.Greater(t, height, 0.0)
}

func TestCoordinator_SaveFailureIsNotRetried(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	avatars := avatarmocks.NewMockService(ctrl)
	var attempts atomic.Int32
	avatars.EXPECT().GetAvatar(gomock.Any(), gomock.Any()).Return(nil, avatar.ErrNotFound).AnyTimes()
	avatars.EXPECT().SetAppearance(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, uuid.UUID, *appearance.Record) error {
			attempts.Add(1)
			return errors.New("disk full")
		}).Times(1)

	f := newFixture(t, avatars)
	id := f.connect(t)
	require.NoError(t, f.coord.SetAppearance(context.Background(), id, SetAppearanceRequest{VisualParams: []byte{1}}))

	f.advance(t, 5*time.Second)
	require.Eventually(t, func() bool { return attempts.Load() == 1 }, waitFor, tick)
	require.Eventually(t, func() bool { return !f.coord.updates.Running() }, waitFor, tick)
	assert.Zero(t, f.coord.updates.Len(coalescer.KindSave))
}

func TestCoordinator_ValidateBakedTextureCache(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()

	t.Run("default only appearance", func(t *testing.T) {
		id := f.connect(t)
		assert.False(t, f.coord.ValidateBakedTextureCache(ctx, id, false))
		assert.False(t, f.coord.ValidateBakedTextureCache(ctx, id, true))
		events, _ := f.hub.Drain(id)
		assert.Empty(t, eventsOf(events, presence.EventRebake))
	})

	t.Run("all bakes present", func(t *testing.T) {
		id := f.connect(t)
		var textures appearance.TextureSet
		textures[appearance.BakeHead] = f.putTexture(t)
		textures[appearance.BakeEyes] = f.putTexture(t)
		textures[appearance.BakeHair] = appearance.DefaultAvatarTexture
		require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{Textures: &textures}))

		assert.True(t, f.coord.ValidateBakedTextureCache(ctx, id, false))
		assert.True(t, f.coord.ValidateBakedTextureCache(ctx, id, false), "validation is idempotent")
	})

	t.Run("missing bake", func(t *testing.T) {
		id := f.connect(t)
		missing := uuid.New()
		var textures appearance.TextureSet
		textures[appearance.BakeHead] = f.putTexture(t)
		textures[appearance.BakeUpperBody] = missing
		require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{Textures: &textures}))

		// the background check requests one rebake
		require.Eventually(t, func() bool {
			events, _ := f.hub.Drain(id)
			rebakes := eventsOf(events, presence.EventRebake)
			return len(rebakes) == 1 && rebakes[0].TextureID == missing
		}, waitFor, tick)

		assert.False(t, f.coord.ValidateBakedTextureCache(ctx, id, false))
		assert.False(t, f.coord.ValidateBakedTextureCache(ctx, id, false))
		events, _ := f.hub.Drain(id)
		assert.Empty(t, eventsOf(events, presence.EventRebake), "check-only runs request nothing")

		assert.True(t, f.coord.ValidateBakedTextureCache(ctx, id, true), "a real bake is referenced")
		events, _ = f.hub.Drain(id)
		rebakes := eventsOf(events, presence.EventRebake)
		require.Len(t, rebakes, 1)
		assert.Equal(t, missing, rebakes[0].TextureID)
	})
}

func TestCoordinator_CachedTexturesEcho(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.connect(t)

	head, hair := f.putTexture(t), f.putTexture(t)
	headCache, hairCache, unknown := uuid.New(), uuid.New(), uuid.New()
	var textures appearance.TextureSet
	textures[appearance.BakeHead] = head
	textures[appearance.BakeHair] = hair

	require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{
		Textures: &textures,
		WearableCache: []appearance.WearableCacheHint{
			{CacheID: headCache, TextureIndex: appearance.BakeHead.FaceIndex()},
			{CacheID: hairCache, TextureIndex: appearance.BakeHair.FaceIndex()},
			{CacheID: uuid.New(), TextureIndex: 3},
		},
	}))

	reqs := []appearance.CachedTextureRequest{
		{TextureIndex: appearance.BakeHead.FaceIndex(), CacheID: headCache},
		{TextureIndex: appearance.BakeHair.FaceIndex(), CacheID: hairCache},
		{TextureIndex: appearance.BakeSkirt.FaceIndex(), CacheID: unknown},
	}
	want := []appearance.CachedTextureResponse{
		{TextureIndex: appearance.BakeHead.FaceIndex(), TextureID: head},
		{TextureIndex: appearance.BakeHair.FaceIndex(), TextureID: hair},
		{TextureIndex: appearance.BakeSkirt.FaceIndex(), TextureID: uuid.Nil},
	}
	require.Eventually(t, func() bool {
		resp, err := f.coord.AgentCachedTexturesRequest(ctx, id, reqs)
		return err == nil && assert.ObjectsAreEqual(want, resp)
	}, waitFor, tick)

	events, _ := f.hub.Drain(id)
	cached := eventsOf(events, presence.EventCachedTextures)
	require.NotEmpty(t, cached)
	assert.Equal(t, want, cached[len(cached)-1].CachedTextures)

	require.Eventually(t, func() bool {
		data, err := f.avatars.GetAvatar(ctx, id)
		if err != nil {
			return false
		}
		stored, err := appearance.ParseCacheIndex(data.Values[appearance.CachedWearablesKey])
		return err == nil && stored.Len() == 2
	}, waitFor, tick, "cache index is persisted")
}

func TestCoordinator_AvatarIsWearing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.connect(t)

	root := &inventory.Folder{ID: uuid.New(), OwnerID: id, Name: "My Inventory"}
	require.NoError(t, f.inv.CreateFolder(ctx, root))
	shirtItem, shirtAsset := uuid.New(), uuid.New()
	require.NoError(t, f.inv.AddItem(ctx, &inventory.Item{
		ID: shirtItem, OwnerID: id, FolderID: root.ID, AssetID: shirtAsset, AssetType: int(assets.TypeClothing),
	}))

	defaultPants, ok := appearance.DefaultItem(appearance.WearablePants, 0)
	require.True(t, ok)

	require.NoError(t, f.coord.AvatarIsWearing(ctx, id, []WornItem{
		{Type: appearance.WearableShirt, ItemID: shirtItem},
		{Type: appearance.WearablePants, ItemID: uuid.New()},
		{Type: appearance.WearableGloves, ItemID: uuid.New()},
		{Type: appearance.WearableType(99), ItemID: uuid.New()},
	}))

	rec, err := f.coord.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, appearance.Wearable{{ItemID: shirtItem, AssetID: shirtAsset}}, rec.Wearables[appearance.WearableShirt])
	assert.Equal(t, appearance.Wearable{defaultPants}, rec.Wearables[appearance.WearablePants], "missing item falls back to default")
	assert.Empty(t, rec.Wearables[appearance.WearableGloves], "no default for gloves")
	assert.Equal(t, appearance.DefaultWearables()[appearance.WearableShape], rec.Wearables[appearance.WearableShape],
		"unmentioned slots are kept")
	assert.Equal(t, 1, rec.Serial)

	assert.Zero(t, f.coord.updates.Len(coalescer.KindSave))
	assert.Zero(t, f.coord.updates.Len(coalescer.KindSend))

	require.NoError(t, f.coord.SendWearables(ctx, id))
	events, _ := f.hub.Drain(id)
	sent := eventsOf(events, presence.EventWearables)
	require.Len(t, sent, 1)
	assert.Equal(t, 1, sent[0].Serial)
	assert.Equal(t, rec.Wearables, *sent[0].Wearables)
}

func TestCoordinator_AvatarIsWearingWithoutInventory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	ctx := context.Background()
	id := f.connect(t)

	require.NoError(t, f.coord.AvatarIsWearing(ctx, id, []WornItem{
		{Type: appearance.WearableShoes, ItemID: uuid.New()},
	}))

	rec, err := f.coord.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, appearance.DefaultWearables(), rec.Wearables)
}

func TestCoordinator_DisconnectDropsPendingWork(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	avatars := avatarmocks.NewMockService(ctrl)
	avatars.EXPECT().GetAvatar(gomock.Any(), gomock.Any()).Return(nil, avatar.ErrNotFound).AnyTimes()
	avatars.EXPECT().SetAppearance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	avatars.EXPECT().CacheWearableData(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()

	f := newFixture(t, avatars)
	ctx := context.Background()
	id := f.connect(t)
	other := f.connect(t)

	require.NoError(t, f.coord.SetAppearance(ctx, id, SetAppearanceRequest{VisualParams: []byte{7}}))
	require.NoError(t, f.coord.Disconnect(ctx, id))

	f.advance(t, 5*time.Second)
	require.Eventually(t, func() bool { return !f.coord.updates.Running() }, waitFor, tick)

	events, _ := f.hub.Drain(other)
	assert.Empty(t, eventsOf(events, presence.EventAppearance), "nothing is sent for an ended session")
}

func TestCoordinator_StopFlushesSavesAndDropsSends(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	avatars := avatar.NewMemoryService()
	hub := presence.NewHub()
	clk := testingclock.NewFakeClock(time.Now())
	c := New(&config.AppearanceConfig{Workers: 1}, assets.NewMemoryStore(), inventory.NewMemoryStore(), avatars, hub,
		WithClock(clk))
	require.NoError(t, c.Start(ctx))

	id := uuid.New()
	hub.Open(id)
	require.NoError(t, c.Connect(ctx, id))
	require.NoError(t, c.SetAppearance(ctx, id, SetAppearanceRequest{VisualParams: []byte{3, 4}}))

	require.NoError(t, c.Stop(ctx))

	data, err := avatars.GetAvatar(ctx, id)
	require.NoError(t, err, "pending save is flushed on shutdown")
	assert.Equal(t, []byte{3, 4}, data.Appearance.VisualParams)

	events, _ := hub.Drain(id)
	assert.Empty(t, eventsOf(events, presence.EventAppearance), "pending send is dropped on shutdown")
}

func TestCoordinator_SetAppearanceDoesNotWaitForBusyWorkers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	checker := newBlockingChecker()
	hub := presence.NewHub()
	cfg := &config.AppearanceConfig{Workers: 1, QueueSize: 1}
	c := New(cfg, checker, inventory.NewMemoryStore(), avatar.NewMemoryService(), hub,
		WithClock(testingclock.NewFakeClock(time.Now())))
	require.NoError(t, c.Start(ctx))

	id := uuid.New()
	require.NoError(t, c.Connect(ctx, id))

	done := make(chan error, 4)
	go func() {
		for i := 0; i < 4; i++ {
			var textures appearance.TextureSet
			textures[appearance.BakeHead] = uuid.New()
			done <- c.SetAppearance(ctx, id, SetAppearanceRequest{Textures: &textures})
		}
	}()

	for i := 0; i < 4; i++ {
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(waitFor):
			t.Fatalf("SetAppearance %d waited for a worker", i+1)
		}
	}

	rec, err := c.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.Serial, "every update is committed")

	close(checker.release)
	require.NoError(t, c.Stop(ctx))
	assert.LessOrEqual(t, checker.calls.Load(), int32(2), "checks beyond the queue are dropped")
}

func TestCoordinator_ValidationForEndedSessionIsDiscarded(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	avatars := avatarmocks.NewMockService(ctrl)
	avatars.EXPECT().GetAvatar(gomock.Any(), gomock.Any()).Return(nil, avatar.ErrNotFound).AnyTimes()
	avatars.EXPECT().CacheWearableData(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	avatars.EXPECT().SetAppearance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	broadcaster := presencemocks.NewMockBroadcaster(ctrl)
	broadcaster.EXPECT().RequestRebake(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	ctx := context.Background()
	checker := newBlockingChecker()
	c := New(&config.AppearanceConfig{Workers: 1}, checker, inventory.NewMemoryStore(), avatars, broadcaster,
		WithClock(testingclock.NewFakeClock(time.Now())))
	require.NoError(t, c.Start(ctx))

	id := uuid.New()
	require.NoError(t, c.Connect(ctx, id))

	var textures appearance.TextureSet
	textures[appearance.BakeHead] = uuid.New()
	require.NoError(t, c.SetAppearance(ctx, id, SetAppearanceRequest{
		Textures: &textures,
		WearableCache: []appearance.WearableCacheHint{
			{CacheID: uuid.New(), TextureIndex: appearance.BakeHead.FaceIndex()},
		},
	}))

	select {
	case <-checker.started:
	case <-time.After(waitFor):
		t.Fatal("bake check did not start")
	}
	require.NoError(t, c.Disconnect(ctx, id))
	close(checker.release)

	// Stop waits for the check to finish
	require.NoError(t, c.Stop(ctx))
	assert.Equal(t, int32(1), checker.calls.Load())
}

func TestCoordinator_AvatarIsWearingLatestCallWins(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	ctx := context.Background()
	id := uuid.New()
	root := &inventory.Folder{ID: uuid.New(), OwnerID: id}
	first := &inventory.Item{ID: uuid.New(), OwnerID: id, FolderID: root.ID, AssetID: uuid.New()}
	second := &inventory.Item{ID: uuid.New(), OwnerID: id, FolderID: root.ID, AssetID: uuid.New()}

	started := make(chan struct{})
	release := make(chan struct{})
	inv := inventorymocks.NewMockService(ctrl)
	inv.EXPECT().GetRootFolder(gomock.Any(), id).DoAndReturn(func(context.Context, uuid.UUID) (*inventory.Folder, error) {
		close(started)
		<-release
		return root, nil
	}).Times(1)
	inv.EXPECT().GetRootFolder(gomock.Any(), id).Return(root, nil).Times(1)
	inv.EXPECT().GetItem(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, itemID uuid.UUID) (*inventory.Item, error) {
			for _, it := range []*inventory.Item{first, second} {
				if it.ID == itemID {
					return it, nil
				}
			}
			return nil, inventory.ErrNotFound
		}).AnyTimes()

	hub := presence.NewHub()
	c := New(nil, assets.NewMemoryStore(), inv, avatar.NewMemoryService(), hub,
		WithClock(testingclock.NewFakeClock(time.Now())))
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { require.NoError(t, c.Stop(context.Background())) })
	require.NoError(t, c.Connect(ctx, id))

	slow := make(chan error, 1)
	go func() {
		slow <- c.AvatarIsWearing(ctx, id, []WornItem{{Type: appearance.WearableShirt, ItemID: first.ID}})
	}()
	<-started

	require.NoError(t, c.AvatarIsWearing(ctx, id, []WornItem{{Type: appearance.WearableShirt, ItemID: second.ID}}))
	close(release)
	require.NoError(t, <-slow)

	rec, err := c.Appearance(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, appearance.Wearable{{ItemID: second.ID, AssetID: second.AssetID}}, rec.Wearables[appearance.WearableShirt],
		"the earlier, slower call does not overwrite the later one")
	assert.Equal(t, 1, rec.Serial)
}
