package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/leslieo2/devstack/internal/constants"
)

type requestIDKey struct{}

// maxInboundRequestID bounds caller-supplied ids so they cannot bloat logs.
const maxInboundRequestID = 128

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns a new
// UUID, exposes it on the response and stores it in the request context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(constants.HeaderXRequestID)
		if id == "" || len(id) > maxInboundRequestID {
			id = uuid.NewString()
		}
		w.Header().Set(constants.HeaderXRequestID, id)
		next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
	})
}

// WithRequestID returns a copy of ctx carrying id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
