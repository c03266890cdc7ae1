package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/leslieo2/devstack/internal/constants"
)

// RequestSizeLimitMiddleware rejects requests whose declared body exceeds
// maxRequestSize and caps the bytes readable from any other body. Requests
// for skipPaths pass through untouched.
func RequestSizeLimitMiddleware(maxRequestSize int64, skipPaths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok || maxRequestSize <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxRequestSize {
				w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": fmt.Sprintf("Request body too large, max size: %d bytes", maxRequestSize),
				})
				return
			}
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)
			}
			next.ServeHTTP(w, r)
		})
	}
}
