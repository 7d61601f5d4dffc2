package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// unmatchedRoute labels requests that no route matched, keeping raw paths
// out of metric labels.
const unmatchedRoute = "unmatched"

// HTTPRecorder receives one observation per request.
// *metrics.Collector implements it.
type HTTPRecorder interface {
	RecordHTTPRequest(route, method string, code int, duration time.Duration)
}

// Metrics records request counts and latency labelled by the chi route
// pattern rather than the concrete path.
func Metrics(recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if recorder == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			recorder.RecordHTTPRequest(routePattern(r), r.Method, rw.statusCode, time.Since(start))
		})
	}
}

// routePattern returns the matched chi pattern, available once routing
// has run.
func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
