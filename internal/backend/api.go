// Package backend implements the backend HTTP responder: its route table,
// payloads and the boundary that turns handler results into responses.
package backend

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/apispec"
	"github.com/leslieo2/devstack/internal/constants"
	"github.com/leslieo2/devstack/internal/observability"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

// Route is one registered method and pattern.
type Route struct {
	Method  string
	Pattern string
}

// API serves the backend routes.
type API struct {
	info      AppInfo
	responder *Responder
	router    chi.Router
}

// New builds the backend router.
func New(info AppInfo, logger *zap.Logger) *API {
	if info.Clock == nil {
		info.Clock = observability.NewProcessClock()
	}

	a := &API{
		info:      info,
		responder: NewResponder(logger),
		router:    chi.NewRouter(),
	}
	a.registerRoutes()
	return a
}

func (a *API) registerRoutes() {
	r := a.router
	r.Use(middleware.RoutePattern, chimw.GetHead)

	r.Get(constants.PathRoot, a.responder.Handle(a.greeting))
	r.Get(constants.PathHealth, a.responder.Handle(a.health))
	r.Get(constants.PathMessage, a.responder.Handle(a.message))

	notFound := a.responder.Handle(routeNotFound)
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// HandlePanic answers a recovered panic with the fault body. It is meant
// to be passed to the recovery middleware.
func (a *API) HandlePanic(w http.ResponseWriter, r *http.Request, err error) {
	a.responder.Fault(w, r, err)
}

// Routes lists the registered routes ordered by pattern then method.
func (a *API) Routes() []Route {
	var routes []Route
	_ = chi.Walk(a.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, Route{Method: method, Pattern: route})
		return nil
	})

	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Pattern != routes[j].Pattern {
			return routes[i].Pattern < routes[j].Pattern
		}
		return routes[i].Method < routes[j].Method
	})
	return routes
}

// VerifyContract reports every contract operation without a registered route.
func (a *API) VerifyContract(c *apispec.Contract) error {
	registered := make(map[string]struct{})
	for _, rt := range a.Routes() {
		registered[rt.Method+" "+rt.Pattern] = struct{}{}
	}

	var errs []error
	for _, op := range c.Operations() {
		key := strings.ToUpper(op.Method) + " " + op.Path
		if _, ok := registered[key]; !ok {
			errs = append(errs, fmt.Errorf("operation %s (%s) has no route", op.ID, key))
		}
	}
	return errors.Join(errs...)
}

func (a *API) greeting(*http.Request) (Result, error) {
	return OK(Greeting{
		Message:   constants.GreetingMessage,
		Timestamp: observability.FormatTimestamp(a.info.Clock.Now()),
		Server:    a.info.ServerName,
		Version:   a.info.Version,
	}), nil
}

func (a *API) health(*http.Request) (Result, error) {
	return OK(observability.NewHealthStatus(a.info.Clock)), nil
}

func (a *API) message(*http.Request) (Result, error) {
	return OK(MessagePayload{
		Message: constants.APIMessage,
		Data: MessageData{
			Environment:    a.info.Environment,
			RuntimeVersion: a.info.RuntimeVersion,
		},
	}), nil
}

func routeNotFound(r *http.Request) (Result, error) {
	return Result{}, &HTTPError{
		Status:  http.StatusNotFound,
		Payload: RouteNotFound{Error: constants.ErrRouteNotFound, Path: r.URL.EscapedPath()},
	}
}
