package backend

import (
	"errors"
	"net/http"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/constants"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result is a successful handler outcome.
type Result struct {
	Status int
	Body   any
}

// OK wraps body in a 200 result.
func OK(body any) Result {
	return Result{Status: http.StatusOK, Body: body}
}

// HTTPError is an expected failure with its own status and body. Any other
// error returned by a handler is a fault and becomes a 500.
type HTTPError struct {
	Status  int
	Payload any
}

func (e *HTTPError) Error() string {
	return http.StatusText(e.Status)
}

// HandlerFunc produces a result or an error; it never writes the response.
type HandlerFunc func(*http.Request) (Result, error)

// Responder is the single place where handler outcomes become HTTP responses.
type Responder struct {
	logger *zap.Logger
}

func NewResponder(logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{logger: logger}
}

// Handle adapts h to an http.HandlerFunc.
func (rp *Responder) Handle(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := h(r)
		if err != nil {
			rp.Error(w, r, err)
			return
		}
		rp.write(w, r, res.Status, res.Body)
	}
}

// Error writes err. An *HTTPError keeps its status and payload; anything
// else is logged with a stack and answered with a 500 fault body.
func (rp *Responder) Error(w http.ResponseWriter, r *http.Request, err error) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		rp.write(w, r, httpErr.Status, httpErr.Payload)
		return
	}

	rp.logger.Error("Handler fault",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
		zap.Stack("stack"),
	)
	rp.Fault(w, r, err)
}

// Fault writes the 500 body for err without logging; the recovery
// middleware has already logged panics with their stack.
func (rp *Responder) Fault(w http.ResponseWriter, r *http.Request, err error) {
	rp.write(w, r, http.StatusInternalServerError, Fault{
		Error:   constants.ErrSomethingWrong,
		Message: err.Error(),
	})
}

func (rp *Responder) write(w http.ResponseWriter, r *http.Request, status int, body any) {
	buf, err := json.Marshal(body)
	if err != nil {
		rp.logger.Error("Failed to encode response", zap.Error(err), zap.String("path", r.URL.Path))
		status = http.StatusInternalServerError
		buf, _ = json.Marshal(Fault{Error: constants.ErrSomethingWrong, Message: err.Error()})
	}

	h := w.Header()
	h.Set(constants.HeaderContentType, constants.ContentTypeJSON+"; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(buf)))
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	_, _ = w.Write(buf)
}
