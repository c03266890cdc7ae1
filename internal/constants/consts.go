package constants

import "time"

// Environment variable constants
const (
	EnvPort           = "PORT"
	EnvHost           = "HOST"
	EnvAppEnv         = "APP_ENV"
	EnvNodeEnv        = "NODE_ENV" // legacy name, read when APP_ENV is unset
	EnvRuntimeVersion = "RUNTIME_VERSION"
	EnvBackendURL     = "BACKEND_URL"
	EnvFrontendPort   = "FRONTEND_PORT"
	EnvFrontendHost   = "FRONTEND_HOST"

	EnvMetricsPort       = "DEVSTACK_METRICS_PORT"
	EnvReadTimeout       = "DEVSTACK_READ_TIMEOUT"
	EnvWriteTimeout      = "DEVSTACK_WRITE_TIMEOUT"
	EnvIdleTimeout       = "DEVSTACK_IDLE_TIMEOUT"
	EnvMaxRequestSize    = "DEVSTACK_MAX_REQUEST_SIZE"
	EnvShutdownTimeout   = "DEVSTACK_SHUTDOWN_TIMEOUT"
	EnvLogLevel          = "DEVSTACK_LOG_LEVEL"
	EnvLogFormat         = "DEVSTACK_LOG_FORMAT"
	EnvMetricsEnabled    = "DEVSTACK_METRICS_ENABLED"
	EnvTracingEnabled    = "DEVSTACK_TRACING_ENABLED"
	EnvTracingExporter   = "DEVSTACK_TRACING_EXPORTER"
	EnvTracingEndpoint   = "DEVSTACK_TRACING_ENDPOINT"
	EnvRateLimitEnabled  = "DEVSTACK_RATE_LIMIT_ENABLED"
	EnvRateLimitRPS      = "DEVSTACK_RATE_LIMIT_RPS"
	EnvHotReload         = "DEVSTACK_HOT_RELOAD"
	EnvHotReloadDebounce = "DEVSTACK_HOT_RELOAD_DEBOUNCE"
	EnvTLSEnabled        = "DEVSTACK_TLS_ENABLED"
	EnvTLSCertFile       = "DEVSTACK_TLS_CERT_FILE"
	EnvTLSKeyFile        = "DEVSTACK_TLS_KEY_FILE"
	EnvRequestTimeout    = "DEVSTACK_REQUEST_TIMEOUT"
	EnvProxyAPI          = "DEVSTACK_PROXY_API"
	EnvValidateContract  = "DEVSTACK_VALIDATE_CONTRACT"
)

// Default values
const (
	DefaultHost         = "0.0.0.0"
	DefaultPort         = "5000"
	DefaultMetricsPort  = "9090"
	DefaultEnvironment  = "development"
	DefaultBackendURL   = "http://localhost:5000"
	DefaultFrontendHost = "0.0.0.0"
	DefaultFrontendPort = "3000"
	DefaultAppVersion   = "1.0.0"
	DefaultServerName   = "Go net/http"
	DefaultServiceName  = "devstack"
)

// Payload constants
const (
	HealthStatusUp       = "UP"
	GreetingMessage      = "Hello World from Backend!"
	APIMessage           = "This is a message from the backend API!"
	ErrRouteNotFound     = "Route not found"
	ErrSomethingWrong    = "Something went wrong!"
	ErrBackendConnection = "Backend connection failed"
)

// TimestampLayout renders UTC instants with millisecond precision and a Z suffix.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HTTP header constants
const (
	HeaderContentType    = "Content-Type"
	HeaderAccept         = "Accept"
	HeaderOrigin         = "Origin"
	HeaderVary           = "Vary"
	HeaderXRequestID     = "X-Request-ID"
	HeaderXForwardedFor  = "X-Forwarded-For"
	HeaderXRealIP        = "X-Real-IP"
	HeaderRequestMethod  = "Access-Control-Request-Method"
	HeaderRequestHeaders = "Access-Control-Request-Headers"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// CORS headers
const (
	HeaderAccessControlAllowOrigin      = "Access-Control-Allow-Origin"
	HeaderAccessControlAllowMethods     = "Access-Control-Allow-Methods"
	HeaderAccessControlAllowHeaders     = "Access-Control-Allow-Headers"
	HeaderAccessControlAllowCredentials = "Access-Control-Allow-Credentials"
	HeaderAccessControlMaxAge           = "Access-Control-Max-Age"
)

// Rate limiting headers
const (
	HeaderXRateLimitLimit     = "X-RateLimit-Limit"
	HeaderXRateLimitRemaining = "X-RateLimit-Remaining"
	HeaderXRateLimitReset     = "X-RateLimit-Reset"
	HeaderRetryAfter          = "Retry-After"
)

// Rate limiter internal constants
const (
	// RateLimitCleanupInterval is the interval for cleaning up rate limit cache
	RateLimitCleanupInterval = 5 * time.Minute
	// RateLimitMaxCacheSize is the maximum size of the rate limit cache
	RateLimitMaxCacheSize = 10000
)

// Server timeout constants
const (
	ServerReadTimeout    = 15 * time.Second
	ServerWriteTimeout   = 15 * time.Second
	ServerIdleTimeout    = 60 * time.Second
	ServerMaxRequestSize = 1 * 1024 * 1024
	// MetricsReadHeaderTimeout bounds header reads on the metrics side server
	MetricsReadHeaderTimeout = 5 * time.Second
	// FrontendRequestTimeout bounds the single backend fetch issued per mount
	FrontendRequestTimeout = 10 * time.Second
)

// Error code constants
const (
	ErrorCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
)

// Path constants
const (
	PathRoot    = "/"
	PathHealth  = "/health"
	PathMessage = "/api/message"
	PathAPI     = "/api"
	PathMetrics = "/metrics"
)

// Hop-by-hop headers that should not be forwarded
var HopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}
