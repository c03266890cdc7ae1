package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/leslieo2/devstack/internal/constants"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration with precedence:
// 1. Explicitly changed CLI flags (highest priority)
// 2. Environment variables (including values loaded from .env)
// 3. Configuration file values
// 4. Default configuration values (lowest priority)
func LoadConfig(configFile string, cliFlags *CLIFlags) (*Config, error) {
	config := DefaultConfig()

	if configFile != "" {
		if err := loadFromFile(configFile, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cliFlags != nil {
		overrideWithCLI(config, cliFlags)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables already present in the environment are left alone,
// and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// CLIFlags contains CLI flag values that can override configuration.
// When FlagSet is set, only flags marked as changed on it are applied;
// without a FlagSet every non-nil field is applied.
type CLIFlags struct {
	FlagSet *pflag.FlagSet

	ConfigFile       *string
	Host             *string
	Port             *string
	MetricsPort      *string
	Environment      *string
	BackendURL       *string
	FrontendPort     *string
	LogLevel         *string
	LogFormat        *string
	ShutdownTimeout  *time.Duration
	RateLimitEnabled *bool
	RateLimitRPS     *int
	HotReload        *bool
	TLSEnabled       *bool
	TLSCertFile      *string
	TLSKeyFile       *string
}

// RegisterFlags defines the shared configuration flags on fs and returns
// the bound values.
func RegisterFlags(fs *pflag.FlagSet) *CLIFlags {
	return &CLIFlags{
		FlagSet:          fs,
		ConfigFile:       fs.String("config", "", "Path to a YAML or JSON configuration file"),
		Host:             fs.String("host", constants.DefaultHost, "Backend listen host"),
		Port:             fs.StringP("port", "p", constants.DefaultPort, "Backend listen port"),
		MetricsPort:      fs.String("metrics-port", constants.DefaultMetricsPort, "Metrics server port"),
		Environment:      fs.String("env", constants.DefaultEnvironment, "Environment name reported by the API"),
		BackendURL:       fs.String("backend-url", constants.DefaultBackendURL, "Base URL of the backend API"),
		FrontendPort:     fs.String("frontend-port", constants.DefaultFrontendPort, "Web frontend listen port"),
		LogLevel:         fs.String("log-level", "info", "Log level (debug, info, warn, error)"),
		LogFormat:        fs.String("log-format", "json", "Log format (json, console)"),
		ShutdownTimeout:  fs.Duration("shutdown-timeout", 0, "Graceful drain deadline, 0 waits indefinitely"),
		RateLimitEnabled: fs.Bool("rate-limit-enabled", false, "Enable per-IP rate limiting"),
		RateLimitRPS:     fs.Int("rate-limit-rps", 60, "Requests per second allowed per client"),
		HotReload:        fs.Bool("hot-reload", true, "Re-apply the config file when it changes"),
		TLSEnabled:       fs.Bool("tls-enabled", false, "Serve HTTPS"),
		TLSCertFile:      fs.String("tls-cert-file", "", "TLS certificate file"),
		TLSKeyFile:       fs.String("tls-key-file", "", "TLS private key file"),
	}
}

// ConfigPath returns the config file requested on the command line, if any.
func (f *CLIFlags) ConfigPath() string {
	if f == nil || f.ConfigFile == nil {
		return ""
	}
	return *f.ConfigFile
}

func (f *CLIFlags) changed(name string) bool {
	if f.FlagSet == nil {
		return true
	}
	return f.FlagSet.Changed(name)
}

// loadFromFile decodes a YAML or JSON file on top of config. Keys absent
// from the file keep their current values.
func loadFromFile(filePath string, config *Config) error {
	if !filepath.IsAbs(filePath) {
		absPath, err := filepath.Abs(filePath)
		if err != nil {
			return fmt.Errorf("failed to get absolute path for %s: %w", filePath, err)
		}
		filePath = absPath
	}

	if err := validateFilePath(filePath); err != nil {
		return fmt.Errorf("invalid config file path %s: %w", filePath, err)
	}

	data, err := os.ReadFile(filePath) // #nosec G304 - file path validated by validateFilePath()
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	ext := filepath.Ext(filePath)
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, config)
	case ".json":
		err = json.Unmarshal(data, config)
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", filePath, err)
	}
	return nil
}

// loadFromEnv loads configuration from environment variables. Malformed
// values are reported together rather than silently dropped.
func loadFromEnv(config *Config) error {
	var errs []error

	str := func(key string, dst *string) {
		if val := os.Getenv(key); val != "" {
			*dst = val
		}
	}
	boolean := func(key string, dst *bool) {
		if val := os.Getenv(key); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if val := os.Getenv(key); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if val := os.Getenv(key); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}

	// Server configuration
	str(constants.EnvHost, &config.Server.Host)
	str(constants.EnvPort, &config.Server.Port)
	str(constants.EnvMetricsPort, &config.Server.MetricsPort)
	duration(constants.EnvReadTimeout, &config.Server.ReadTimeout)
	duration(constants.EnvWriteTimeout, &config.Server.WriteTimeout)
	duration(constants.EnvIdleTimeout, &config.Server.IdleTimeout)
	duration(constants.EnvShutdownTimeout, &config.Server.ShutdownTimeout)
	if val := os.Getenv(constants.EnvMaxRequestSize); val != "" {
		size, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", constants.EnvMaxRequestSize, err))
		} else {
			config.Server.MaxRequestSize = size
		}
	}

	// Application metadata; NODE_ENV is honoured when APP_ENV is unset
	str(constants.EnvNodeEnv, &config.App.Environment)
	str(constants.EnvAppEnv, &config.App.Environment)
	str(constants.EnvRuntimeVersion, &config.App.RuntimeVersion)

	// Frontend
	str(constants.EnvBackendURL, &config.Frontend.BackendURL)
	str(constants.EnvFrontendHost, &config.Frontend.Host)
	str(constants.EnvFrontendPort, &config.Frontend.Port)
	duration(constants.EnvRequestTimeout, &config.Frontend.RequestTimeout)
	boolean(constants.EnvProxyAPI, &config.Frontend.ProxyAPI)
	boolean(constants.EnvValidateContract, &config.Frontend.ValidateContract)

	// Observability
	str(constants.EnvLogLevel, &config.Observability.Logging.Level)
	str(constants.EnvLogFormat, &config.Observability.Logging.Format)
	boolean(constants.EnvMetricsEnabled, &config.Observability.Metrics.Enabled)
	boolean(constants.EnvTracingEnabled, &config.Observability.Tracing.Enabled)
	str(constants.EnvTracingExporter, &config.Observability.Tracing.Exporter)
	str(constants.EnvTracingEndpoint, &config.Observability.Tracing.Endpoint)

	// Security
	boolean(constants.EnvRateLimitEnabled, &config.Security.RateLimit.Enabled)
	integer(constants.EnvRateLimitRPS, &config.Security.RateLimit.RequestsPerSecond)

	// Hot reload and TLS
	boolean(constants.EnvHotReload, &config.HotReload.Enabled)
	duration(constants.EnvHotReloadDebounce, &config.HotReload.Debounce)
	boolean(constants.EnvTLSEnabled, &config.TLS.Enabled)
	str(constants.EnvTLSCertFile, &config.TLS.CertFile)
	str(constants.EnvTLSKeyFile, &config.TLS.KeyFile)

	return errors.Join(errs...)
}

// overrideWithCLI overrides configuration with CLI flag values
func overrideWithCLI(config *Config, flags *CLIFlags) {
	str := func(name string, src *string, dst *string) {
		if src != nil && flags.changed(name) {
			*dst = *src
		}
	}
	boolean := func(name string, src *bool, dst *bool) {
		if src != nil && flags.changed(name) {
			*dst = *src
		}
	}

	str("host", flags.Host, &config.Server.Host)
	str("port", flags.Port, &config.Server.Port)
	str("metrics-port", flags.MetricsPort, &config.Server.MetricsPort)
	if flags.ShutdownTimeout != nil && flags.changed("shutdown-timeout") {
		config.Server.ShutdownTimeout = *flags.ShutdownTimeout
	}

	str("env", flags.Environment, &config.App.Environment)
	str("backend-url", flags.BackendURL, &config.Frontend.BackendURL)
	str("frontend-port", flags.FrontendPort, &config.Frontend.Port)
	str("log-level", flags.LogLevel, &config.Observability.Logging.Level)
	str("log-format", flags.LogFormat, &config.Observability.Logging.Format)

	boolean("rate-limit-enabled", flags.RateLimitEnabled, &config.Security.RateLimit.Enabled)
	if flags.RateLimitRPS != nil && flags.changed("rate-limit-rps") {
		config.Security.RateLimit.RequestsPerSecond = *flags.RateLimitRPS
	}

	boolean("hot-reload", flags.HotReload, &config.HotReload.Enabled)
	boolean("tls-enabled", flags.TLSEnabled, &config.TLS.Enabled)
	str("tls-cert-file", flags.TLSCertFile, &config.TLS.CertFile)
	str("tls-key-file", flags.TLSKeyFile, &config.TLS.KeyFile)
}

// validateFilePath checks if the file path is safe to read
func validateFilePath(filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains directory traversal attempts")
	}

	info, err := os.Stat(cleanPath)
	if err == nil && info.IsDir() {
		return fmt.Errorf("%s is a directory", cleanPath)
	}
	return nil
}
