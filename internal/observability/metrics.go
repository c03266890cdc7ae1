package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Backend fetch outcomes recorded by the display clients.
const (
	FetchOutcomeSuccess     = "success"
	FetchOutcomeUnavailable = "unavailable"
	FetchOutcomeTransport   = "transport_error"
	FetchOutcomeInvalid     = "invalid_payload"
	FetchOutcomeCancelled   = "cancelled"
)

type Metrics struct {
	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	RequestSize       *prometheus.HistogramVec
	ResponseSize      *prometheus.HistogramVec
	ActiveConnections prometheus.Gauge
	HealthStatus      prometheus.Gauge
	BackendFetches    *prometheus.CounterVec

	registry *prometheus.Registry
	handler  http.Handler
}

// NewMetrics creates the collectors and registers them, together with the
// Go runtime and process collectors, on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint", "status_code"},
		),
		RequestSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint", "status_code"},
		),
		ActiveConnections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_active_connections",
				Help: "Number of in-flight HTTP requests",
			},
		),
		HealthStatus: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "app_health_status",
				Help: "Application health status (1 = healthy, 0 = unhealthy)",
			},
		),
		BackendFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backend_fetch_total",
				Help: "Backend message fetches issued by display clients, by outcome",
			},
			[]string{"outcome"},
		),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.RequestSize,
		m.ResponseSize,
		m.ActiveConnections,
		m.HealthStatus,
		m.BackendFetches,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m.handler = promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})

	return m
}

func (m *Metrics) RecordRequest(method, endpoint string, statusCode int, duration time.Duration, requestSize, responseSize int64) {
	status := strconv.Itoa(statusCode)

	m.RequestCount.WithLabelValues(method, endpoint, status).Inc()
	m.RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.ResponseSize.WithLabelValues(method, endpoint, status).Observe(float64(responseSize))
}

// RecordFetch counts one backend fetch by outcome.
func (m *Metrics) RecordFetch(outcome string) {
	m.BackendFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetHealthStatus(healthy bool) {
	if healthy {
		m.HealthStatus.Set(1)
	} else {
		m.HealthStatus.Set(0)
	}
}

// Registry exposes the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the private registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return m.handler
}
