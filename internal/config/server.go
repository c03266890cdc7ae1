package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/leslieo2/devstack/internal/constants"
)

// ServerConfig contains listener and lifecycle settings for the backend process.
type ServerConfig struct {
	Host            string        `json:"host" yaml:"host"`
	Port            string        `json:"port" yaml:"port"`
	MetricsPort     string        `json:"metrics_port" yaml:"metrics_port"`
	ReadTimeout     time.Duration `json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" yaml:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	MaxRequestSize  int64         `json:"max_request_size" yaml:"max_request_size"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultServerConfig returns default server configuration.
// A zero ShutdownTimeout waits for in-flight requests without a deadline.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            constants.DefaultHost,
		Port:            constants.DefaultPort,
		MetricsPort:     constants.DefaultMetricsPort,
		ReadTimeout:     constants.ServerReadTimeout,
		WriteTimeout:    constants.ServerWriteTimeout,
		IdleTimeout:     constants.ServerIdleTimeout,
		MaxRequestSize:  constants.ServerMaxRequestSize,
		ShutdownTimeout: 0,
	}
}

// Address returns the host:port the backend listens on.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// MetricsAddress returns the host:port of the metrics side server.
func (s ServerConfig) MetricsAddress() string {
	return net.JoinHostPort(s.Host, s.MetricsPort)
}

// Validate validates server configuration
func (s ServerConfig) Validate() error {
	var errs []error

	if s.Host == "" {
		errs = append(errs, errors.New("host cannot be empty"))
	}
	if err := validatePort(s.Port, "port"); err != nil {
		errs = append(errs, err)
	}
	if err := validatePort(s.MetricsPort, "metrics_port"); err != nil {
		errs = append(errs, err)
	}
	if s.ReadTimeout <= 0 {
		errs = append(errs, errors.New("read_timeout must be positive"))
	}
	if s.WriteTimeout <= 0 {
		errs = append(errs, errors.New("write_timeout must be positive"))
	}
	if s.IdleTimeout <= 0 {
		errs = append(errs, errors.New("idle_timeout must be positive"))
	}
	if s.MaxRequestSize <= 0 {
		errs = append(errs, errors.New("max_request_size must be positive"))
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("shutdown_timeout must be non-negative"))
	}

	return errors.Join(errs...)
}

// validatePort checks that portStr is a decimal TCP port in 1-65535.
func validatePort(portStr, fieldName string) error {
	if portStr == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid %s: %s", fieldName, portStr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("%s must be between 1 and 65535, got %d", fieldName, port)
	}
	return nil
}
