package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNewTracerProvider(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		cfg        *Config
		expectNoOp bool
	}{
		{
			name:       "nil config",
			cfg:        nil,
			expectNoOp: true,
		},
		{
			name: "telemetry disabled overrides tracing",
			cfg: &Config{
				Enabled: false,
				Tracing: &TracingConfig{Enabled: true},
			},
			expectNoOp: true,
		},
		{
			name:       "tracing section missing",
			cfg:        &Config{Enabled: true},
			expectNoOp: true,
		},
		{
			name: "tracing disabled",
			cfg: &Config{
				Enabled: true,
				Tracing: &TracingConfig{Enabled: false},
			},
			expectNoOp: true,
		},
		{
			name: "tracing enabled",
			cfg: &Config{
				Enabled:  true,
				Endpoint: "collector.example.com:4318",
				Insecure: true,
				Tracing:  &TracingConfig{Enabled: true, Sampling: floatPtr(0.5)},
			},
			expectNoOp: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()

			tp, err := NewTracerProvider(ctx, tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, tp)

			if tt.expectNoOp {
				_, ok := tp.(noop.TracerProvider)
				assert.True(t, ok, "expected no-op tracer provider")
				return
			}

			sdkTP, ok := tp.(*sdktrace.TracerProvider)
			require.True(t, ok, "expected SDK tracer provider")
			require.NoError(t, sdkTP.Shutdown(ctx))
		})
	}
}

func TestNewSampler(t *testing.T) {
	t.Parallel()

	traceID := trace.TraceID{0x0a, 0xf7, 0x65, 0x19, 0x16, 0xcd, 0x43, 0xdd, 0x84, 0x48, 0xeb, 0x21, 0x1c, 0x80, 0x31, 0x9c}
	parent := func(flags trace.TraceFlags) context.Context {
		return trace.ContextWithRemoteSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     trace.SpanID{0xb7, 0xad, 0x6b, 0x71, 0x69, 0x20, 0x33, 0x31},
			TraceFlags: flags,
			Remote:     true,
		}))
	}

	tests := []struct {
		name     string
		sampling *float64
		ctx      context.Context
		expected sdktrace.SamplingDecision
	}{
		{
			name:     "sampled caller is kept despite a tiny ratio",
			sampling: floatPtr(0.0001),
			ctx:      parent(trace.FlagsSampled),
			expected: sdktrace.RecordAndSample,
		},
		{
			name:     "unsampled caller is dropped despite a full ratio",
			sampling: floatPtr(1.0),
			ctx:      parent(0),
			expected: sdktrace.Drop,
		},
		{
			name:     "root span follows the ratio",
			sampling: floatPtr(1.0),
			ctx:      context.Background(),
			expected: sdktrace.RecordAndSample,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sampler := newSampler(&TracingConfig{Enabled: true, Sampling: tt.sampling})
			result := sampler.ShouldSample(sdktrace.SamplingParameters{
				ParentContext: tt.ctx,
				TraceID:       traceID,
				Name:          "PUT /v1/participants/{id}/appearance",
				Kind:          trace.SpanKindServer,
			})
			assert.Equal(t, tt.expected, result.Decision)
		})
	}
}

func TestNewResource(t *testing.T) {
	t.Parallel()

	res, err := newResource(context.Background(), "appearance-api", "1.4.0")
	require.NoError(t, err)

	values := map[string]string{}
	for _, kv := range res.Attributes() {
		values[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "appearance-api", values["service.name"])
	assert.Equal(t, "1.4.0", values["service.version"])
}
