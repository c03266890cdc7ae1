package config

import (
	"fmt"
)

// Config represents the unified configuration shared by the backend,
// the web frontend and the terminal dashboard.
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	App           AppConfig           `json:"app" yaml:"app"`
	Frontend      FrontendConfig      `json:"frontend" yaml:"frontend"`
	Security      SecurityConfig      `json:"security" yaml:"security"`
	Observability ObservabilityConfig `json:"observability" yaml:"observability"`
	HotReload     HotReloadConfig     `json:"hot_reload" yaml:"hot_reload"`
	TLS           TLSConfig           `json:"tls" yaml:"tls"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server:        DefaultServerConfig(),
		App:           DefaultAppConfig(),
		Frontend:      DefaultFrontendConfig(),
		Security:      DefaultSecurityConfig(),
		Observability: DefaultObservabilityConfig(),
		HotReload:     DefaultHotReloadConfig(),
		TLS:           DefaultTLSConfig(),
	}
}

// Validate validates the entire configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app config validation failed: %w", err)
	}
	if err := c.Frontend.Validate(); err != nil {
		return fmt.Errorf("frontend config validation failed: %w", err)
	}
	if err := c.Security.Validate(); err != nil {
		return fmt.Errorf("security config validation failed: %w", err)
	}
	if err := c.Observability.Validate(); err != nil {
		return fmt.Errorf("observability config validation failed: %w", err)
	}
	if err := c.HotReload.Validate(); err != nil {
		return fmt.Errorf("hot reload config validation failed: %w", err)
	}
	if err := c.TLS.Validate(); err != nil {
		return fmt.Errorf("tls config validation failed: %w", err)
	}
	if c.Observability.Metrics.Enabled && c.Server.MetricsPort == c.Server.Port {
		return fmt.Errorf("metrics port %s conflicts with server port", c.Server.MetricsPort)
	}
	return nil
}
