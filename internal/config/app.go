package config

import (
	"errors"
	"runtime"

	"github.com/leslieo2/devstack/internal/constants"
)

// AppConfig describes the running application. It is read once at startup
// and handed to the handlers that echo it.
type AppConfig struct {
	Environment    string `json:"environment" yaml:"environment"`
	RuntimeVersion string `json:"runtime_version" yaml:"runtime_version"`
	Version        string `json:"version" yaml:"version"`
	ServerName     string `json:"server_name" yaml:"server_name"`
	ServiceName    string `json:"service_name" yaml:"service_name"`
}

// DefaultAppConfig returns default application metadata
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Environment:    constants.DefaultEnvironment,
		RuntimeVersion: runtime.Version(),
		Version:        constants.DefaultAppVersion,
		ServerName:     constants.DefaultServerName,
		ServiceName:    constants.DefaultServiceName,
	}
}

// Validate validates application metadata
func (a AppConfig) Validate() error {
	var errs []error
	if a.Environment == "" {
		errs = append(errs, errors.New("environment cannot be empty"))
	}
	if a.ServiceName == "" {
		errs = append(errs, errors.New("service_name cannot be empty"))
	}
	return errors.Join(errs...)
}
