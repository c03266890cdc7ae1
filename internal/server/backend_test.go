package server

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/backend"
	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/observability"
)

func TestServer_HeadThroughBackend(t *testing.T) {
	cfg := testConfig(t)
	api := backend.New(backend.NewAppInfo(cfg.App, nil), zap.NewNop())
	metrics := observability.NewMetrics()
	srv := New("backend", cfg.Server.Address(), api, cfg, observability.NewNopLogger(), metrics,
		WithPanicHandler(api.HandlePanic))
	h := srv.Handler()

	for _, path := range []string{"/", "/health", "/api/message"} {
		t.Run(path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodHead, path, nil))
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
		})
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RequestCount.WithLabelValues("HEAD", "/health", "200")))
}

func TestServer_BackendFromEnvironment(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:5005")
	if err != nil {
		t.Skipf("port 5005 unavailable: %v", err)
	}
	require.NoError(t, ln.Close())

	t.Setenv("PORT", "5005")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("DEVSTACK_METRICS_PORT", freePort(t))

	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:5005", cfg.Server.Address())

	api := backend.New(backend.NewAppInfo(cfg.App, nil), zap.NewNop())
	srv := New("backend", cfg.Server.Address(), api, cfg, observability.NewNopLogger(), observability.NewMetrics(),
		WithPanicHandler(api.HandlePanic))
	baseURL, stop := startTestServer(t, srv)
	assert.Equal(t, "http://127.0.0.1:5005", baseURL)

	client := &http.Client{}
	do := func(method, path string) (*http.Response, []byte) {
		req, err := http.NewRequest(method, baseURL+path, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp, body
	}

	for _, path := range []string{"/", "/health", "/api/message"} {
		resp, body := do(http.MethodGet, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json", path)
		assert.True(t, json.Valid(body), path)

		resp, body = do(http.MethodHead, path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "HEAD "+path)
		assert.Empty(t, body, "HEAD "+path)
	}

	_, body := do(http.MethodGet, "/health")
	var health observability.HealthStatus
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "UP", health.Status)

	resp, body := do(http.MethodGet, "/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.JSONEq(t, `{"error":"Route not found","path":"/does-not-exist"}`, string(body))

	require.NoError(t, stop())
}
