// Package telemetry provides OpenTelemetry instrumentation for the appearance server.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// AppearanceMetricsMeterName is the name used for the appearance pipeline meter
	AppearanceMetricsMeterName = "github.com/stacklok/appearance-server/appearance"

	// CoalescerMetricsMeterName is the name used for the update coalescer meter
	CoalescerMetricsMeterName = "github.com/stacklok/appearance-server/coalescer"
)

// AppearanceMetrics holds the OpenTelemetry instruments for appearance processing
type AppearanceMetrics struct {
	activeSessions    metric.Int64UpDownCounter
	bakeMisses        metric.Int64Counter
	wearableFallbacks metric.Int64Counter
	saveFailures      metric.Int64Counter
}

// NewAppearanceMetrics creates a new AppearanceMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewAppearanceMetrics(provider metric.MeterProvider) (*AppearanceMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(AppearanceMetricsMeterName)

	activeSessions, err := meter.Int64UpDownCounter(
		"appearance_srv_active_sessions",
		metric.WithDescription("Number of connected participant sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	bakeMisses, err := meter.Int64Counter(
		"appearance_srv_bake_misses_total",
		metric.WithDescription("Baked textures referenced by an appearance but absent from the asset store"),
		metric.WithUnit("{texture}"),
	)
	if err != nil {
		return nil, err
	}

	wearableFallbacks, err := meter.Int64Counter(
		"appearance_srv_wearable_fallbacks_total",
		metric.WithDescription("Wearable entries replaced by the default outfit"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	saveFailures, err := meter.Int64Counter(
		"appearance_srv_save_failures_total",
		metric.WithDescription("Appearance saves rejected by the avatar store"),
		metric.WithUnit("{save}"),
	)
	if err != nil {
		return nil, err
	}

	return &AppearanceMetrics{
		activeSessions:    activeSessions,
		bakeMisses:        bakeMisses,
		wearableFallbacks: wearableFallbacks,
		saveFailures:      saveFailures,
	}, nil
}

// SessionOpened increments the active session count
func (m *AppearanceMetrics) SessionOpened(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, 1)
}

// SessionClosed decrements the active session count
func (m *AppearanceMetrics) SessionClosed(ctx context.Context) {
	if m == nil || m.activeSessions == nil {
		return
	}
	m.activeSessions.Add(ctx, -1)
}

// RecordBakeMisses records missing baked textures found by a validation run
func (m *AppearanceMetrics) RecordBakeMisses(ctx context.Context, count int, rebakeRequested bool) {
	if m == nil || m.bakeMisses == nil || count == 0 {
		return
	}
	m.bakeMisses.Add(ctx, int64(count), metric.WithAttributes(attribute.Bool("rebake_requested", rebakeRequested)))
}

// RecordWearableFallback records a wearable entry replaced by the default outfit.
// reason is "no_inventory" or "item_missing".
func (m *AppearanceMetrics) RecordWearableFallback(ctx context.Context, reason string, count int) {
	if m == nil || m.wearableFallbacks == nil || count == 0 {
		return
	}
	m.wearableFallbacks.Add(ctx, int64(count), metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordSaveFailure records a failed appearance save
func (m *AppearanceMetrics) RecordSaveFailure(ctx context.Context) {
	if m == nil || m.saveFailures == nil {
		return
	}
	m.saveFailures.Add(ctx, 1)
}

// CoalescerMetrics holds the OpenTelemetry instruments for the deferred save/send queues
type CoalescerMetrics struct {
	queueDepth     metric.Int64Gauge
	dispatched     metric.Int64Counter
	actionDuration metric.Float64Histogram
}

// NewCoalescerMetrics creates a new CoalescerMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewCoalescerMetrics(provider metric.MeterProvider) (*CoalescerMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(CoalescerMetricsMeterName)

	queueDepth, err := meter.Int64Gauge(
		"appearance_srv_pending_actions",
		metric.WithDescription("Participants with a pending action in each queue"),
		metric.WithUnit("{participant}"),
	)
	if err != nil {
		return nil, err
	}

	dispatched, err := meter.Int64Counter(
		"appearance_srv_actions_dispatched_total",
		metric.WithDescription("Deferred actions handed to the worker pool"),
		metric.WithUnit("{action}"),
	)
	if err != nil {
		return nil, err
	}

	actionDuration, err := meter.Float64Histogram(
		"appearance_srv_action_duration_seconds",
		metric.WithDescription("Duration of deferred save and send actions in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5),
	)
	if err != nil {
		return nil, err
	}

	return &CoalescerMetrics{
		queueDepth:     queueDepth,
		dispatched:     dispatched,
		actionDuration: actionDuration,
	}, nil
}

// RecordQueueDepth records the number of pending entries in a queue
func (m *CoalescerMetrics) RecordQueueDepth(ctx context.Context, queue string, depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Record(ctx, int64(depth), metric.WithAttributes(attribute.String("queue", queue)))
}

// RecordDispatched records actions handed off by a sweep
func (m *CoalescerMetrics) RecordDispatched(ctx context.Context, queue string, count int) {
	if m == nil || m.dispatched == nil || count == 0 {
		return
	}
	m.dispatched.Add(ctx, int64(count), metric.WithAttributes(attribute.String("queue", queue)))
}

// RecordActionDuration records how long a dispatched action ran
func (m *CoalescerMetrics) RecordActionDuration(ctx context.Context, queue string, duration time.Duration, success bool) {
	if m == nil || m.actionDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("queue", queue),
		attribute.Bool("success", success),
	}

	m.actionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
