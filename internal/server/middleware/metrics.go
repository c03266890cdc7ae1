package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/leslieo2/devstack/internal/observability"
)

// unmatchedRoute labels requests that no route pattern matched, keeping
// arbitrary 404 paths out of the metric label set.
const unmatchedRoute = "unmatched"

type routePatternKey struct{}

// routePattern carries the matched chi pattern back out of the router.
type routePattern struct {
	value string
}

// MetricsMiddleware records request count, duration and sizes labelled by
// chi route pattern. The pattern is filled in by RoutePattern running
// inside the router; without it every request is labelled unmatched.
func MetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			pattern := &routePattern{}
			r = r.WithContext(context.WithValue(r.Context(), routePatternKey{}, pattern))

			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			metrics.ActiveConnections.Inc()
			defer metrics.ActiveConnections.Dec()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			endpoint := pattern.value
			if endpoint == "" {
				endpoint = unmatchedRoute
			}
			requestSize := r.ContentLength
			if requestSize < 0 {
				requestSize = 0
			}
			metrics.RecordRequest(r.Method, endpoint, status, time.Since(start), requestSize, int64(ww.BytesWritten()))
		})
	}
}

// RoutePattern reports the route pattern chi matched to MetricsMiddleware.
// Register it with Use on the chi router itself so the router owns its
// route context.
func RoutePattern(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			pattern, ok := r.Context().Value(routePatternKey{}).(*routePattern)
			if !ok {
				return
			}
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				pattern.value = rctx.RoutePattern()
			}
		}()
		next.ServeHTTP(w, r)
	})
}
