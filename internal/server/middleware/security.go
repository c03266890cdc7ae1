package middleware

import (
	"fmt"
	"net/http"

	"github.com/leslieo2/devstack/internal/config"
)

// SecurityHeadersMiddleware creates a security headers middleware.
// Strict-Transport-Security is only sent on TLS connections.
func SecurityHeadersMiddleware(cfg config.SecurityHeaders) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "no-referrer")
			if r.TLS != nil && cfg.HSTSMaxAge > 0 {
				w.Header().Set("Strict-Transport-Security", fmt.Sprintf("max-age=%d; includeSubDomains", cfg.HSTSMaxAge))
			}
			next.ServeHTTP(w, r)
		})
	}
}
