package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/constants"
)

// CORSMiddleware answers preflight requests and decorates responses with
// CORS headers. A wildcard origin without credentials is sent back as "*";
// otherwise the request origin is echoed when it is allowed.
type CORSMiddleware struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// NewCORSMiddleware creates a CORS middleware from configuration
func NewCORSMiddleware(cfg config.CORSConfig) *CORSMiddleware {
	return &CORSMiddleware{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}
}

func (c *CORSMiddleware) wildcard() bool {
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed.
func (c *CORSMiddleware) allowOrigin(origin string) string {
	if c.wildcard() && !c.AllowCredentials {
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return origin
		}
	}
	return ""
}

// Handler returns the CORS middleware handler
func (c *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		origin := r.Header.Get(constants.HeaderOrigin)

		allowOrigin := c.allowOrigin(origin)
		if allowOrigin != "" {
			h.Set(constants.HeaderAccessControlAllowOrigin, allowOrigin)
			if allowOrigin != "*" {
				h.Add(constants.HeaderVary, constants.HeaderOrigin)
			}
			if c.AllowCredentials {
				h.Set(constants.HeaderAccessControlAllowCredentials, "true")
			}
		}

		preflight := r.Method == http.MethodOptions && r.Header.Get(constants.HeaderRequestMethod) != ""
		if !preflight {
			next.ServeHTTP(w, r)
			return
		}

		if allowOrigin != "" {
			h.Set(constants.HeaderAccessControlAllowMethods, strings.Join(c.AllowedMethods, ","))
			if len(c.AllowedHeaders) > 0 {
				h.Set(constants.HeaderAccessControlAllowHeaders, strings.Join(c.AllowedHeaders, ","))
			} else if requested := r.Header.Get(constants.HeaderRequestHeaders); requested != "" {
				h.Set(constants.HeaderAccessControlAllowHeaders, requested)
				h.Add(constants.HeaderVary, constants.HeaderRequestHeaders)
			}
			if c.MaxAge > 0 {
				h.Set(constants.HeaderAccessControlMaxAge, strconv.Itoa(c.MaxAge))
			}
		}

		h.Set("Content-Length", "0")
		w.WriteHeader(http.StatusNoContent)
	})
}
