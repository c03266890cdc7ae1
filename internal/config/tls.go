package config

import (
	"crypto/tls"
	"fmt"
	"os"
)

// TLSConfig contains TLS-specific configuration
type TLSConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	MinVersion string `json:"min_version" yaml:"min_version"`
}

// DefaultTLSConfig returns default TLS configuration
func DefaultTLSConfig() TLSConfig {
	return TLSConfig{
		Enabled:    false,
		MinVersion: "1.2",
	}
}

// TLSVersion maps MinVersion onto a crypto/tls version constant.
func (c TLSConfig) TLSVersion() (uint16, error) {
	switch c.MinVersion {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported tls.min_version %q, must be 1.2 or 1.3", c.MinVersion)
	}
}

// Validate validates the TLS configuration
func (c TLSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.CertFile == "" {
		return fmt.Errorf("tls.cert_file is required when TLS is enabled")
	}
	if c.KeyFile == "" {
		return fmt.Errorf("tls.key_file is required when TLS is enabled")
	}
	if _, err := os.Stat(c.CertFile); os.IsNotExist(err) {
		return fmt.Errorf("TLS cert file not found: %s", c.CertFile)
	}
	if _, err := os.Stat(c.KeyFile); os.IsNotExist(err) {
		return fmt.Errorf("TLS key file not found: %s", c.KeyFile)
	}
	if _, err := c.TLSVersion(); err != nil {
		return err
	}
	return nil
}
