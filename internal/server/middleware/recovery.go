package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// PanicHandler writes the response for a request whose handler panicked.
type PanicHandler func(w http.ResponseWriter, r *http.Request, err error)

// RecoveryMiddleware converts handler panics into errors, logs them with the
// stack and hands them to onPanic. http.ErrAbortHandler is re-raised so the
// server can abort the connection as usual.
func RecoveryMiddleware(logger *zap.Logger, onPanic PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err, ok := rec.(error)
				if !ok {
					err = fmt.Errorf("%v", rec)
				}

				logger.Error("Recovered from panic",
					zap.Error(err),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.ByteString("stack", debug.Stack()),
				)

				if onPanic != nil {
					onPanic(w, r, err)
					return
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
