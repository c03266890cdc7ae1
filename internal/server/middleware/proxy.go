package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/leslieo2/devstack/internal/constants"
)

// Proxy forwards requests to the backend API unchanged in path, so
// /api/message on the frontend reaches /api/message on the backend.
type Proxy struct {
	target  *url.URL
	timeout time.Duration
	proxy   *httputil.ReverseProxy
	logger  *zap.Logger
}

// NewProxy creates a reverse proxy to target. A nil transport uses
// http.DefaultTransport.
func NewProxy(target string, timeout time.Duration, transport http.RoundTripper, logger *zap.Logger) (*Proxy, error) {
	targetURL, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proxy target URL: %w", err)
	}
	if targetURL.Scheme == "" || targetURL.Host == "" {
		return nil, fmt.Errorf("proxy target must be an absolute URL, got %q", target)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Proxy{target: targetURL, timeout: timeout, logger: logger}
	p.proxy = &httputil.ReverseProxy{
		Transport: transport,
		Director: func(req *http.Request) {
			req.URL.Scheme = targetURL.Scheme
			req.URL.Host = targetURL.Host
			if targetURL.Path != "/" && targetURL.Path != "" {
				req.URL.Path = joinPaths(targetURL.Path, req.URL.Path)
			}
			req.Host = targetURL.Host
			removeHopByHopHeaders(req.Header)
		},
		ModifyResponse: func(resp *http.Response) error {
			removeHopByHopHeaders(resp.Header)
			// The frontend applies its own CORS policy.
			resp.Header.Del(constants.HeaderAccessControlAllowOrigin)
			return nil
		},
		ErrorHandler: p.handleError,
	}
	return p, nil
}

func (p *Proxy) handleError(w http.ResponseWriter, r *http.Request, err error) {
	p.logger.Warn("Proxy request failed",
		zap.String("path", r.URL.Path),
		zap.String("target", p.target.Host),
		zap.Error(err),
	)
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusBadGateway)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   constants.ErrBackendConnection,
		"message": err.Error(),
	})
}

// ServeHTTP forwards the request, bounded by the proxy timeout when set.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if p.timeout > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), p.timeout)
		defer cancel()
		r = r.WithContext(ctx)
	}
	p.proxy.ServeHTTP(w, r)
}

func removeHopByHopHeaders(headers http.Header) {
	for _, h := range constants.HopHeaders {
		headers.Del(h)
	}
}

// joinPaths joins two URL paths with exactly one slash between them
func joinPaths(basePath, additionalPath string) string {
	if basePath == "" {
		return additionalPath
	}
	if additionalPath == "" {
		return basePath
	}

	basePath = strings.TrimSuffix(basePath, "/")
	additionalPath = strings.TrimPrefix(additionalPath, "/")
	if additionalPath == "" {
		return basePath
	}
	return basePath + "/" + additionalPath
}
