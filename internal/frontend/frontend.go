// Package frontend serves the web display client.
package frontend

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/backend"
	"github.com/leslieo2/devstack/internal/constants"
	"github.com/leslieo2/devstack/internal/display"
	"github.com/leslieo2/devstack/internal/observability"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

//go:embed templates/*.tmpl
var templates embed.FS

var pageTemplate = template.Must(template.ParseFS(templates, "templates/index.html.tmpl"))

// PageData is what the page template renders.
type PageData struct {
	View  display.View
	Tools []display.ToolCard
}

// Frontend serves the page, the frontend health check and, optionally, the
// /api proxy.
type Frontend struct {
	fetcher   display.Fetcher
	clock     *observability.ProcessClock
	responder *backend.Responder
	apiProxy  http.Handler
	metrics   http.Handler
	metricsAt string
	logger    *zap.Logger
	router    chi.Router
}

type Option func(*Frontend)

// WithAPIProxy forwards /api/* to h.
func WithAPIProxy(h http.Handler) Option {
	return func(f *Frontend) { f.apiProxy = h }
}

// WithMetricsHandler serves h at path on the frontend listener.
func WithMetricsHandler(path string, h http.Handler) Option {
	return func(f *Frontend) {
		f.metricsAt = path
		f.metrics = h
	}
}

func WithClock(clock *observability.ProcessClock) Option {
	return func(f *Frontend) {
		if clock != nil {
			f.clock = clock
		}
	}
}

// New builds the frontend router. Every page render mounts a fresh display
// component that fetches through fetcher.
func New(fetcher display.Fetcher, logger *zap.Logger, opts ...Option) *Frontend {
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &Frontend{
		fetcher:   fetcher,
		clock:     observability.NewProcessClock(),
		responder: backend.NewResponder(logger),
		logger:    logger,
		router:    chi.NewRouter(),
	}
	for _, opt := range opts {
		opt(f)
	}

	r := f.router
	r.Use(middleware.RoutePattern, chimw.GetHead)
	r.Get(constants.PathRoot, f.index)
	r.Get(constants.PathHealth, f.responder.Handle(f.health))
	if f.metrics != nil && f.metricsAt != "" {
		r.Method(http.MethodGet, f.metricsAt, f.metrics)
	}
	if f.apiProxy != nil {
		r.Handle(constants.PathAPI+"/*", f.apiProxy)
	}

	notFound := f.responder.Handle(func(r *http.Request) (backend.Result, error) {
		return backend.Result{}, &backend.HTTPError{
			Status:  http.StatusNotFound,
			Payload: backend.RouteNotFound{Error: constants.ErrRouteNotFound, Path: r.URL.EscapedPath()},
		}
	})
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return f
}

func (f *Frontend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.router.ServeHTTP(w, r)
}

// HandlePanic answers a recovered panic with the fault body.
func (f *Frontend) HandlePanic(w http.ResponseWriter, r *http.Request, err error) {
	f.responder.Fault(w, r, err)
}

func (f *Frontend) health(*http.Request) (backend.Result, error) {
	return backend.OK(observability.NewHealthStatus(f.clock)), nil
}

func (f *Frontend) index(w http.ResponseWriter, r *http.Request) {
	component := display.NewComponent(f.fetcher)
	component.Mount(r.Context())
	defer component.Unmount()

	view, err := component.Wait(r.Context())
	if err != nil {
		// client went away; nothing left to render for
		f.logger.Debug("Page request ended before backend responded", zap.Error(err))
		return
	}

	buf, err := Render(view)
	if err != nil {
		f.responder.Error(w, r, err)
		return
	}

	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTML)
	w.Header().Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf)
	}
}

// Render produces the page for view.
func Render(view display.View) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, PageData{View: view, Tools: display.Tools()}); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}
	return buf.Bytes(), nil
}
