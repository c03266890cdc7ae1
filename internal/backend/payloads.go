package backend

import (
	"github.com/leslieo2/devstack/internal/config"
	"github.com/leslieo2/devstack/internal/observability"
)

// AppInfo is read once at startup and shared read-only by all handlers.
type AppInfo struct {
	Environment    string
	RuntimeVersion string
	Version        string
	ServerName     string
	Clock          *observability.ProcessClock
}

// NewAppInfo captures application metadata and anchors the process clock.
func NewAppInfo(cfg config.AppConfig, clock *observability.ProcessClock) AppInfo {
	if clock == nil {
		clock = observability.NewProcessClock()
	}
	return AppInfo{
		Environment:    cfg.Environment,
		RuntimeVersion: cfg.RuntimeVersion,
		Version:        cfg.Version,
		ServerName:     cfg.ServerName,
		Clock:          clock,
	}
}

type Greeting struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Server    string `json:"server"`
	Version   string `json:"version"`
}

type MessagePayload struct {
	Message string      `json:"message"`
	Data    MessageData `json:"data"`
}

type MessageData struct {
	Environment    string `json:"environment"`
	RuntimeVersion string `json:"runtime_version"`
}

// RouteNotFound is the body of every 404.
type RouteNotFound struct {
	Error string `json:"error"`
	Path  string `json:"path"`
}

// Fault is the body of every 500. Message carries only the error text.
type Fault struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
