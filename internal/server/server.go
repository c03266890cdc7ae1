package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/constants"
	"github.com/leslieo2/devstack/internal/observability"
	"github.com/leslieo2/devstack/internal/security"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

// Server is the HTTP runtime shared by the backend and the web frontend:
// listener, optional TLS, middleware chain, optional metrics side server
// and graceful drain.
type Server struct {
	name         string
	addr         string
	router       http.Handler
	config       *config.Config
	onPanic      middleware.PanicHandler
	serveMetrics bool

	rateLimiter *security.RateLimiter

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	mu       sync.Mutex
	listener net.Listener
	ready    chan struct{}
}

// Option customises a Server.
type Option func(*Server)

// WithPanicHandler routes recovered handler panics to fn.
func WithPanicHandler(fn middleware.PanicHandler) Option {
	return func(s *Server) { s.onPanic = fn }
}

// WithMetricsServer starts the Prometheus side server on the configured
// metrics port alongside the main listener.
func WithMetricsServer() Option {
	return func(s *Server) { s.serveMetrics = true }
}

// WithTracer instruments the handler chain with the given tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// New creates a server named name that serves router on addr.
// A nil logger discards output; nil metrics disables request metrics.
func New(name, addr string, router http.Handler, cfg *config.Config, logger *observability.Logger, metrics *observability.Metrics, opts ...Option) *Server {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	s := &Server{
		name:        name,
		addr:        addr,
		router:      router,
		config:      cfg,
		logger:      logger,
		metrics:     metrics,
		rateLimiter: security.NewRateLimiter(cfg.Security.RateLimit, logger.Named("ratelimit")),
		ready:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listener address, or the configured address
// before Run has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Run binds the listener and serves until ctx is cancelled, then stops
// accepting connections and drains in-flight requests. A zero shutdown
// timeout waits for the drain without a deadline. Bind failures are
// returned immediately.
func (s *Server) Run(ctx context.Context) error {
	httpServer, err := s.newHTTPServer()
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", s.addr, err)
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	var metricsServer *http.Server
	if s.serveMetrics && s.config.Observability.Metrics.Enabled && s.metrics != nil {
		metricsServer, err = s.startMetricsServer()
		if err != nil {
			_ = ln.Close()
			return err
		}
	}

	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	if s.config.Security.RateLimit.Enabled {
		go s.rateLimiter.Run(runCtx)
	}

	if s.metrics != nil {
		s.metrics.SetHealthStatus(true)
	}
	s.logger.Info("Starting server",
		zap.String("name", s.name),
		zap.String("address", ln.Addr().String()),
		zap.Bool("tls", s.config.TLS.Enabled),
	)
	close(s.ready)

	errCh := make(chan error, 1)
	go func() {
		if s.config.TLS.Enabled {
			errCh <- httpServer.ServeTLS(ln, s.config.TLS.CertFile, s.config.TLS.KeyFile)
		} else {
			errCh <- httpServer.Serve(ln)
		}
	}()

	select {
	case err := <-errCh:
		if metricsServer != nil {
			_ = metricsServer.Close()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%s server failed: %w", s.name, err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...", zap.String("name", s.name))
	if s.metrics != nil {
		s.metrics.SetHealthStatus(false)
	}
	return s.shutdown(httpServer, metricsServer)
}

func (s *Server) newHTTPServer() (*http.Server, error) {
	srv := &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
		ErrorLog:       zap.NewStdLog(s.logger.Logger),
	}
	if s.config.TLS.Enabled {
		minVersion, err := s.config.TLS.TLSVersion()
		if err != nil {
			return nil, err
		}
		srv.TLSConfig = &tls.Config{MinVersion: minVersion}
	}
	return srv, nil
}

func (s *Server) startMetricsServer() (*http.Server, error) {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.MetricsPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind metrics server %s: %w", addr, err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle(s.config.Observability.Metrics.Path, s.metrics.Handler())
	metricsServer := &http.Server{
		Handler:           metricsMux,
		ReadHeaderTimeout: constants.MetricsReadHeaderTimeout,
	}

	s.logger.Info("Starting metrics server",
		zap.String("address", ln.Addr().String()),
		zap.String("path", s.config.Observability.Metrics.Path),
	)
	go func() {
		if err := metricsServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return metricsServer, nil
}

// shutdown drains both servers in parallel and returns the first error.
func (s *Server) shutdown(main, metrics *http.Server) error {
	ctx := context.Background()
	if timeout := s.config.Server.ShutdownTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if metrics != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.Shutdown(ctx); err != nil {
				s.logger.Error("Failed to shutdown metrics server", zap.Error(err))
				errChan <- fmt.Errorf("metrics server shutdown: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		start := time.Now()
		if err := main.Shutdown(ctx); err != nil {
			s.logger.Error("Failed to shutdown main server", zap.Error(err))
			errChan <- fmt.Errorf("main server shutdown: %w", err)
			return
		}
		s.logger.Info("Server drained", zap.String("name", s.name), zap.Duration("took", time.Since(start)))
	}()

	wg.Wait()
	close(errChan)

	for err := range errChan {
		if err != nil {
			return err
		}
	}
	return nil
}
