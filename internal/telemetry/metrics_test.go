package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader, scopeName string) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != scopeName {
			continue
		}
		for _, m := range scope.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestNewAppearanceMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewAppearanceMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("nil metrics are no-ops", func(t *testing.T) {
		t.Parallel()

		var metrics *AppearanceMetrics
		ctx := context.Background()
		assert.NotPanics(t, func() {
			metrics.SessionOpened(ctx)
			metrics.SessionClosed(ctx)
			metrics.RecordBakeMisses(ctx, 2, true)
			metrics.RecordWearableFallback(ctx, "item_missing", 1)
			metrics.RecordSaveFailure(ctx)
		})
	})
}

func TestAppearanceMetrics_Record(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = mp.Shutdown(context.Background()) }()

	metrics, err := NewAppearanceMetrics(mp)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.SessionOpened(ctx)
	metrics.SessionOpened(ctx)
	metrics.SessionClosed(ctx)
	metrics.RecordBakeMisses(ctx, 3, true)
	metrics.RecordBakeMisses(ctx, 0, false)
	metrics.RecordWearableFallback(ctx, "no_inventory", 6)
	metrics.RecordSaveFailure(ctx)

	got := collect(t, reader, AppearanceMetricsMeterName)

	sessions, ok := got["appearance_srv_active_sessions"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sessions.DataPoints, 1)
	assert.Equal(t, int64(1), sessions.DataPoints[0].Value)

	misses, ok := got["appearance_srv_bake_misses_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, misses.DataPoints, 1)
	assert.Equal(t, int64(3), misses.DataPoints[0].Value)

	fallbacks, ok := got["appearance_srv_wearable_fallbacks_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, fallbacks.DataPoints, 1)
	assert.Equal(t, int64(6), fallbacks.DataPoints[0].Value)

	assert.Contains(t, got, "appearance_srv_save_failures_total")
}

func TestCoalescerMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("nil metrics are no-ops", func(t *testing.T) {
		t.Parallel()

		var metrics *CoalescerMetrics
		assert.NotPanics(t, func() {
			metrics.RecordQueueDepth(context.Background(), "save", 1)
			metrics.RecordDispatched(context.Background(), "save", 1)
			metrics.RecordActionDuration(context.Background(), "save", time.Second, true)
		})
	})

	t.Run("records queue instruments", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewCoalescerMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordQueueDepth(ctx, "save", 4)
		metrics.RecordQueueDepth(ctx, "send", 2)
		metrics.RecordDispatched(ctx, "send", 2)
		metrics.RecordActionDuration(ctx, "send", 20*time.Millisecond, true)

		got := collect(t, reader, CoalescerMetricsMeterName)

		depth, ok := got["appearance_srv_pending_actions"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		assert.Len(t, depth.DataPoints, 2)

		dispatched, ok := got["appearance_srv_actions_dispatched_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, dispatched.DataPoints, 1)
		assert.Equal(t, int64(2), dispatched.DataPoints[0].Value)

		hist, ok := got["appearance_srv_action_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		require.Len(t, hist.DataPoints, 1)
		assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	})
}
