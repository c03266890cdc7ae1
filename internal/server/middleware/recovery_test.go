package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRecoveryMiddleware_ForwardsToPanicHandler(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	var got error

	onPanic := func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
		w.WriteHeader(http.StatusTeapot)
	}
	h := RecoveryMiddleware(zap.New(core), onPanic)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	require.Error(t, got)
	assert.Equal(t, "boom", got.Error())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Recovered from panic", entry.Message)
	assert.Contains(t, entry.ContextMap(), "stack")
}

func TestRecoveryMiddleware_ErrorValue(t *testing.T) {
	sentinel := errors.New("exploded")
	var got error

	h := RecoveryMiddleware(zap.NewNop(), func(w http.ResponseWriter, r *http.Request, err error) {
		got = err
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(sentinel)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.ErrorIs(t, got, sentinel)
}

func TestRecoveryMiddleware_DefaultResponse(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRecoveryMiddleware_RepanicsAbort(t *testing.T) {
	h := RecoveryMiddleware(zap.NewNop(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	}))

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}
