// Package otel provides OpenTelemetry instrumentation utilities for the appearance server.
package otel

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Common attribute keys for business context used across the application.
// Using shared keys ensures consistent attribute naming in traces.
const (
	AttrParticipantID = attribute.Key("participant.id")
	AttrBakePosition  = attribute.Key("bake.position")
	AttrRebakeOnMiss  = attribute.Key("bake.rebake_on_miss")
	AttrMissingCount  = attribute.Key("bake.missing_count")
	AttrWearableSlot  = attribute.Key("wearable.slot")
	AttrSerial        = attribute.Key("appearance.serial")
	AttrActionKind    = attribute.Key("action.kind")
	AttrResultCount   = attribute.Key("result.count")
	AttrOperation     = attribute.Key("appearance.operation")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise returns a no-op span.
// This provides graceful degradation when tracing is disabled.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// It safely handles nil spans and nil errors.
// Note: The status description is intentionally generic to prevent sensitive
// information (e.g., SQL statements, file paths) from appearing in trace
// status. The full error details are still available via span events for debugging.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// ParticipantAttributes returns the attributes that tie a span to a participant session.
func ParticipantAttributes(id uuid.UUID, extra ...attribute.KeyValue) trace.SpanStartOption {
	attrs := make([]attribute.KeyValue, 0, len(extra)+1)
	attrs = append(attrs, AttrParticipantID.String(id.String()))
	attrs = append(attrs, extra...)
	return trace.WithAttributes(attrs...)
}
