package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/leslieo2/devstack/internal/constants"
)

// FrontendConfig holds settings for the display clients.
type FrontendConfig struct {
	Host             string        `json:"host" yaml:"host"`
	Port             string        `json:"port" yaml:"port"`
	BackendURL       string        `json:"backend_url" yaml:"backend_url"`
	RequestTimeout   time.Duration `json:"request_timeout" yaml:"request_timeout"`
	ProxyAPI         bool          `json:"proxy_api" yaml:"proxy_api"`
	ValidateContract bool          `json:"validate_contract" yaml:"validate_contract"`
}

// DefaultFrontendConfig returns default frontend configuration
func DefaultFrontendConfig() FrontendConfig {
	return FrontendConfig{
		Host:             constants.DefaultFrontendHost,
		Port:             constants.DefaultFrontendPort,
		BackendURL:       constants.DefaultBackendURL,
		RequestTimeout:   constants.FrontendRequestTimeout,
		ProxyAPI:         true,
		ValidateContract: false,
	}
}

// Address returns the host:port the web frontend listens on.
func (f FrontendConfig) Address() string {
	return net.JoinHostPort(f.Host, f.Port)
}

// Validate validates frontend configuration
func (f FrontendConfig) Validate() error {
	var errs []error

	if err := validatePort(f.Port, "frontend port"); err != nil {
		errs = append(errs, err)
	}
	if f.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request_timeout must be positive"))
	}

	u, err := url.Parse(f.BackendURL)
	switch {
	case f.BackendURL == "":
		errs = append(errs, errors.New("backend_url cannot be empty"))
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid backend_url: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("backend_url must use http or https, got %q", u.Scheme))
	case u.Host == "":
		errs = append(errs, errors.New("backend_url must include a host"))
	}

	return errors.Join(errs...)
}
