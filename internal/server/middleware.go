package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/leslieo2/devstack/internal/constants"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

// Handler returns the router wrapped in the full middleware chain.
// Outermost first: tracing, request id, logging, metrics, rate limiting,
// CORS, security headers, body size limit, panic recovery.
func (s *Server) Handler() http.Handler {
	handler := s.router

	handler = middleware.RecoveryMiddleware(s.logger.Logger, s.onPanic)(handler)
	handler = middleware.RequestSizeLimitMiddleware(s.config.Server.MaxRequestSize, constants.PathHealth)(handler)
	handler = middleware.SecurityHeadersMiddleware(s.config.Security.Headers)(handler)

	if s.config.Security.CORS.Enabled {
		handler = middleware.NewCORSMiddleware(s.config.Security.CORS).Handler(handler)
	}

	handler = s.rateLimiter.Middleware(handler)

	if s.metrics != nil {
		handler = middleware.MetricsMiddleware(s.metrics)(handler)
	}

	handler = middleware.LoggingMiddleware(s.logger.Logger)(handler)
	handler = middleware.RequestIDMiddleware(handler)

	if s.tracer != nil && s.tracer.Enabled() {
		handler = otelhttp.NewHandler(handler, s.name,
			otelhttp.WithTracerProvider(s.tracer.Provider()),
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	}

	return handler
}
