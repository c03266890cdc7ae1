package backend

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/leslieo2/devstack/internal/apispec"
	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/observability"
	"github.com/leslieo2/devstack/internal/server/middleware"
)

func testInfo() AppInfo {
	cfg := config.DefaultConfig().App
	cfg.Environment = "staging"
	cfg.RuntimeVersion = "go1.24.5"
	return NewAppInfo(cfg, observability.NewProcessClock())
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, target, nil))
	return rr
}

func TestAPI_Greeting(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	rr := serve(t, api, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var got Greeting
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Hello World from Backend!", got.Message)
	assert.Equal(t, "Go net/http", got.Server)
	assert.Equal(t, "1.0.0", got.Version)

	ts, err := time.Parse(time.RFC3339Nano, got.Timestamp)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, 5*time.Second)
	assert.Regexp(t, `\.\d{3}Z$`, got.Timestamp)
}

func TestAPI_Health(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	rr := serve(t, api, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rr.Code)

	var got observability.HealthStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "UP", got.Status)
	assert.GreaterOrEqual(t, got.Uptime, 0.0)
	assert.NotEmpty(t, got.Timestamp)
}

func TestAPI_HealthUptimeNonDecreasing(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	var prev observability.HealthStatus
	for i := 0; i < 5; i++ {
		rr := serve(t, api, http.MethodGet, "/health")
		var cur observability.HealthStatus
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cur))
		assert.GreaterOrEqual(t, cur.Uptime, prev.Uptime)
		assert.GreaterOrEqual(t, cur.Timestamp, prev.Timestamp)
		prev = cur
	}
}

func TestAPI_Message(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	rr := serve(t, api, http.MethodGet, "/api/message")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{
		"message": "This is a message from the backend API!",
		"data": {"environment": "staging", "runtime_version": "go1.24.5"}
	}`, rr.Body.String())
}

func TestAPI_MessageDefaults(t *testing.T) {
	api := New(NewAppInfo(config.DefaultConfig().App, nil), zap.NewNop())

	rr := serve(t, api, http.MethodGet, "/api/message")
	var got MessagePayload
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "development", got.Data.Environment)
	assert.NotEmpty(t, got.Data.RuntimeVersion)
}

func TestAPI_RouteNotFound(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	tests := []struct {
		name     string
		method   string
		target   string
		wantPath string
	}{
		{"unknown path", http.MethodGet, "/nope", "/nope"},
		{"nested unknown path", http.MethodGet, "/api/other", "/api/other"},
		{"query string is not part of path", http.MethodGet, "/missing?x=1", "/missing"},
		{"wrong method on known path", http.MethodPost, "/api/message", "/api/message"},
		{"delete on root", http.MethodDelete, "/", "/"},
		{"encoded path is reported as requested", http.MethodGet, "/does%20not", "/does%20not"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(t, api, tt.method, tt.target)
			assert.Equal(t, http.StatusNotFound, rr.Code)

			var got RouteNotFound
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
			assert.Equal(t, "Route not found", got.Error)
			assert.Equal(t, tt.wantPath, got.Path)
		})
	}
}

func TestAPI_HeadHasNoBody(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	rr := serve(t, api, http.MethodHead, "/health")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Body.Bytes())
	assert.NotEmpty(t, rr.Header().Get("Content-Length"))
}

func TestAPI_PanicBecomesFault(t *testing.T) {
	api := New(testInfo(), zap.NewNop())
	api.router.Get("/boom", func(http.ResponseWriter, *http.Request) {
		panic(errors.New("kaboom"))
	})

	h := middleware.RecoveryMiddleware(zap.NewNop(), api.HandlePanic)(api)
	rr := serve(t, h, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Something went wrong!","message":"kaboom"}`, rr.Body.String())
}

func TestAPI_Routes(t *testing.T) {
	api := New(testInfo(), zap.NewNop())

	assert.Equal(t, []Route{
		{Method: http.MethodGet, Pattern: "/"},
		{Method: http.MethodGet, Pattern: "/api/message"},
		{Method: http.MethodGet, Pattern: "/health"},
	}, api.Routes())
}

func TestAPI_VerifyContract(t *testing.T) {
	contract, err := apispec.Load()
	require.NoError(t, err)

	api := New(testInfo(), zap.NewNop())
	assert.NoError(t, api.VerifyContract(contract))
}

func TestAPI_VerifyContractMissingRoute(t *testing.T) {
	contract, err := apispec.LoadFromData([]byte(`
openapi: 3.0.3
info: {title: t, version: "1"}
paths:
  /extra:
    get:
      operationId: getExtra
      responses:
        "200":
          description: ok
`))
	require.NoError(t, err)

	api := New(testInfo(), zap.NewNop())
	err = api.VerifyContract(contract)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getExtra")
}

func TestAPI_ResponsesMatchContract(t *testing.T) {
	contract, err := apispec.Load()
	require.NoError(t, err)

	api := New(testInfo(), zap.NewNop())
	api.router.Get("/boom", func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	h := middleware.RecoveryMiddleware(zap.NewNop(), api.HandlePanic)(api)

	tests := []struct {
		method string
		target string
		status int
		// path checked against the contract
		path string
	}{
		{http.MethodGet, "/", http.StatusOK, "/"},
		{http.MethodGet, "/health", http.StatusOK, "/health"},
		{http.MethodGet, "/api/message", http.StatusOK, "/api/message"},
		{http.MethodGet, "/unknown", http.StatusNotFound, "/unknown"},
		{http.MethodPut, "/health", http.StatusNotFound, "/unknown"},
		// fault bodies share the schema declared for /
		{http.MethodGet, "/boom", http.StatusInternalServerError, "/"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rr := serve(t, h, tt.method, tt.target)
			require.Equal(t, tt.status, rr.Code)

			body, err := io.ReadAll(rr.Body)
			require.NoError(t, err)
			assert.NoError(t, contract.ValidateResponse(http.MethodGet, tt.path, tt.status, body))
		})
	}
}

func TestResponder_ErrorLogsFault(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	rp := NewResponder(zap.New(core))

	h := rp.Handle(func(*http.Request) (Result, error) {
		return Result{}, errors.New("database exploded")
	})
	rr := serve(t, h, http.MethodGet, "/x")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error":"Something went wrong!","message":"database exploded"}`, rr.Body.String())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Handler fault", entry.Message)
	assert.Contains(t, entry.ContextMap(), "stack")
}

func TestResponder_HTTPErrorNotLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	rp := NewResponder(zap.New(core))

	h := rp.Handle(func(*http.Request) (Result, error) {
		return Result{}, &HTTPError{Status: http.StatusTeapot, Payload: map[string]string{"error": "short and stout"}}
	})
	rr := serve(t, h, http.MethodGet, "/")

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.JSONEq(t, `{"error":"short and stout"}`, rr.Body.String())
	assert.Zero(t, logs.Len())
}

func TestResponder_UnencodableBody(t *testing.T) {
	rp := NewResponder(nil)

	h := rp.Handle(func(*http.Request) (Result, error) {
		return OK(map[string]any{"ch": make(chan int)}), nil
	})
	rr := serve(t, h, http.MethodGet, "/")

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var got Fault
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "Something went wrong!", got.Error)
}
