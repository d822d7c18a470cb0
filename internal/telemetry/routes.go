package telemetry

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	// unknownRoute stands in for requests chi could not route, keeping label cardinality bounded
	unknownRoute = "unknown_route"

	// otherOperation labels routed requests that are not participant operations
	otherOperation = "other"
)

// participantOperations maps each participant endpoint to the appearance operation it drives.
var participantOperations = map[string]string{
	http.MethodPost + " /v1/participants/{id}/session":         "connect",
	http.MethodDelete + " /v1/participants/{id}/session":       "disconnect",
	http.MethodGet + " /v1/participants/{id}/appearance":       "get_appearance",
	http.MethodPut + " /v1/participants/{id}/appearance":       "set_appearance",
	http.MethodPut + " /v1/participants/{id}/wearing":          "avatar_is_wearing",
	http.MethodPost + " /v1/participants/{id}/cached-textures": "cached_textures",
	http.MethodPost + " /v1/participants/{id}/bake-validation": "validate_bakes",
	http.MethodPost + " /v1/participants/{id}/wearables":       "send_wearables",
	http.MethodGet + " /v1/participants/{id}/events":           "drain_events",
}

// uninstrumentedPaths are polled by orchestrators and scrapers and carry no participant work.
var uninstrumentedPaths = map[string]struct{}{
	"/health":    {},
	"/readiness": {},
	"/metrics":   {},
}

func instrumented(r *http.Request) bool {
	_, skip := uninstrumentedPaths[r.URL.Path]
	return !skip
}

// routePattern returns the chi pattern the request matched. Only valid once routing is done.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil || rctx.RoutePattern() == "" {
		return unknownRoute
	}
	return rctx.RoutePattern()
}

func operationName(method, route string) string {
	if op, ok := participantOperations[method+" "+route]; ok {
		return op
	}
	return otherOperation
}

// routeParticipant returns the raw {id} parameter of a participant route, or "" elsewhere.
func routeParticipant(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.URLParam("id")
}

// writtenStatus is the status sent to the client. Handlers that never write get an implicit 200.
func writtenStatus(ww middleware.WrapResponseWriter) int {
	if ww.Status() == 0 {
		return http.StatusOK
	}
	return ww.Status()
}

func statusClass(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	case code >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
