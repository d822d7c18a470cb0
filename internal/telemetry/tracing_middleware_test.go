package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	appotel "github.com/stacklok/appearance-server/internal/otel"
)

// newTestTracerProvider creates a tracer provider with an in-memory exporter.
// The provider is shut down when the test completes.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, *sdktrace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func spanAttrs(span tracetest.SpanStub) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value, len(span.Attributes))
	for _, kv := range span.Attributes {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingMiddleware_NilProvider(t *testing.T) {
	t.Parallel()

	mw := TracingMiddleware(nil)
	require.NotNil(t, mw)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"serial":1}`))
	})

	rr := serve(mw(handler), http.MethodPost, "/v1/participants/"+testParticipant+"/session")

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, `{"serial":1}`, rr.Body.String())
}

func TestTracingMiddleware_ParticipantRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		method    string
		path      string
		spanName  string
		route     string
		operation string
	}{
		{
			name:      "set appearance",
			method:    http.MethodPut,
			path:      "/v1/participants/" + testParticipant + "/appearance",
			spanName:  "PUT /v1/participants/{id}/appearance",
			route:     "/v1/participants/{id}/appearance",
			operation: "set_appearance",
		},
		{
			name:      "connect",
			method:    http.MethodPost,
			path:      "/v1/participants/" + testParticipant + "/session",
			spanName:  "POST /v1/participants/{id}/session",
			route:     "/v1/participants/{id}/session",
			operation: "connect",
		},
		{
			name:      "drain events",
			method:    http.MethodGet,
			path:      "/v1/participants/" + testParticipant + "/events",
			spanName:  "GET /v1/participants/{id}/events",
			route:     "/v1/participants/{id}/events",
			operation: "drain_events",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			rr := serve(newParticipantRouter(TracingMiddleware(tp), http.StatusOK), tt.method, tt.path)
			assert.Equal(t, http.StatusOK, rr.Code)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.spanName, spans[0].Name)

			attrs := spanAttrs(spans[0])
			assert.Equal(t, tt.route, attrs[semconv.HTTPRouteKey].AsString())
			assert.Equal(t, tt.path, attrs[semconv.URLPathKey].AsString())
			assert.Equal(t, tt.operation, attrs[appotel.AttrOperation].AsString())
			assert.Equal(t, testParticipant, attrs[appotel.AttrParticipantID].AsString())
		})
	}
}

func TestTracingMiddleware_NonParticipantRoutes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		path     string
		spanName string
	}{
		{name: "version", path: "/version", spanName: "GET /version"},
		{name: "unrouted", path: "/v2/nothing", spanName: "GET " + unknownRoute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			serve(newParticipantRouter(TracingMiddleware(tp), http.StatusOK), http.MethodGet, tt.path)

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.spanName, spans[0].Name)

			attrs := spanAttrs(spans[0])
			assert.NotContains(t, attrs, appotel.AttrOperation)
			assert.NotContains(t, attrs, appotel.AttrParticipantID)
		})
	}
}

func TestTracingMiddleware_StatusCodeRecording(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		statusCode  int
		spanStatus  codes.Code
		description string
	}{
		{
			name:       "accepted update is Ok",
			statusCode: http.StatusAccepted,
			spanStatus: codes.Ok,
		},
		{
			name:       "unknown participant leaves status Unset",
			statusCode: http.StatusNotFound,
			spanStatus: codes.Unset,
		},
		{
			name:        "store failure is an Error",
			statusCode:  http.StatusInternalServerError,
			spanStatus:  codes.Error,
			description: http.StatusText(http.StatusInternalServerError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)
			serve(newParticipantRouter(TracingMiddleware(tp), tt.statusCode), http.MethodPut,
				"/v1/participants/"+testParticipant+"/appearance")

			spans := exporter.GetSpans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.spanStatus, spans[0].Status.Code)
			assert.Equal(t, tt.description, spans[0].Status.Description)
			assert.Equal(t, int64(tt.statusCode), spanAttrs(spans[0])[semconv.HTTPResponseStatusCodeKey].AsInt64())
		})
	}
}

func TestTracingMiddleware_ImplicitOK(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	handler := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

	serve(TracingMiddleware(tp)(handler), http.MethodDelete, "/v1/participants/"+testParticipant+"/session")

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Equal(t, int64(http.StatusOK), spanAttrs(spans[0])[semconv.HTTPResponseStatusCodeKey].AsInt64())
}

func TestTracingMiddleware_TraceContextExtraction(t *testing.T) {
	t.Parallel()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	exporter, tp := newTestTracerProvider(t)

	expectedTraceID := "0af7651916cd43dd8448eb211c80319c"
	req := httptest.NewRequest(http.MethodPut, "/v1/participants/"+testParticipant+"/appearance", nil)
	req.Header.Set("traceparent", "00-"+expectedTraceID+"-b7ad6b7169203331-01")
	rr := httptest.NewRecorder()
	newParticipantRouter(TracingMiddleware(tp), http.StatusAccepted).ServeHTTP(rr, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, expectedTraceID, spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "b7ad6b7169203331", spans[0].Parent.SpanID().String())
}

func TestTracingMiddleware_HandlerSeesSpan(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)

	var handlerSpanValid bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, child := tp.Tracer("coordinator").Start(r.Context(), "coordinator.SetAppearance")
		handlerSpanValid = child.SpanContext().IsValid()
		child.End()
		w.WriteHeader(http.StatusAccepted)
	})

	serve(TracingMiddleware(tp)(handler), http.MethodPut, "/v1/participants/"+testParticipant+"/appearance")

	require.True(t, handlerSpanValid)
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	// The child ends first
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestTracingMiddleware_SkipsHealthEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{name: "health", path: "/health"},
		{name: "readiness", path: "/readiness"},
		{name: "metrics scrape", path: "/metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter, tp := newTestTracerProvider(t)

			handlerCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			})

			rr := serve(TracingMiddleware(tp)(handler), http.MethodGet, tt.path)

			assert.True(t, handlerCalled)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Empty(t, exporter.GetSpans())
		})
	}
}

func TestTruncateUserAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "viewer user agent unchanged",
			input:    "SecondLife/7.1.2 (Release; x86_64)",
			expected: "SecondLife/7.1.2 (Release; x86_64)",
		},
		{
			name:     "exactly max length unchanged",
			input:    strings.Repeat("a", MaxUserAgentLength),
			expected: strings.Repeat("a", MaxUserAgentLength),
		},
		{
			name:     "exceeds max length truncated",
			input:    strings.Repeat("a", MaxUserAgentLength+100),
			expected: strings.Repeat("a", MaxUserAgentLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, truncateUserAgent(tt.input))
		})
	}
}
