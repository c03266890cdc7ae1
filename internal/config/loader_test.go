package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }

func writeConfigFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		content    string
		envVars    map[string]string
		cliFlags   *CLIFlags
		want       func(*Config)
		wantErr    bool
		missingCfg bool
	}{
		{
			name: "Default Config Only",
			want: func(*Config) {},
		},
		{
			name:     "Load from YAML file",
			fileName: "config.yaml",
			content:  "server:\n  port: \"8081\"\napp:\n  environment: staging\n",
			want: func(c *Config) {
				c.Server.Port = "8081"
				c.App.Environment = "staging"
			},
		},
		{
			name:     "Load from JSON file",
			fileName: "config.json",
			content:  `{"server": {"port": "8082"}, "frontend": {"backend_url": "http://api:5000"}}`,
			want: func(c *Config) {
				c.Server.Port = "8082"
				c.Frontend.BackendURL = "http://api:5000"
			},
		},
		{
			name:       "File not found",
			missingCfg: true,
			wantErr:    true,
		},
		{
			name:     "Invalid file content",
			fileName: "config.yaml",
			content:  `server: {port: "8081"`,
			wantErr:  true,
		},
		{
			name:     "Unsupported extension",
			fileName: "config.toml",
			content:  `port = 1`,
			wantErr:  true,
		},
		{
			name:    "Load from Environment Variables",
			envVars: map[string]string{"PORT": "8083", "APP_ENV": "production", "RUNTIME_VERSION": "go1.99"},
			want: func(c *Config) {
				c.Server.Port = "8083"
				c.App.Environment = "production"
				c.App.RuntimeVersion = "go1.99"
			},
		},
		{
			name:    "NODE_ENV used when APP_ENV unset",
			envVars: map[string]string{"NODE_ENV": "test"},
			want:    func(c *Config) { c.App.Environment = "test" },
		},
		{
			name:    "APP_ENV wins over NODE_ENV",
			envVars: map[string]string{"NODE_ENV": "test", "APP_ENV": "qa"},
			want:    func(c *Config) { c.App.Environment = "qa" },
		},
		{
			name:    "Malformed boolean env is an error",
			envVars: map[string]string{"DEVSTACK_RATE_LIMIT_ENABLED": "sometimes"},
			wantErr: true,
		},
		{
			name:    "Shutdown timeout from env",
			envVars: map[string]string{"DEVSTACK_SHUTDOWN_TIMEOUT": "20s"},
			want:    func(c *Config) { c.Server.ShutdownTimeout = 20 * time.Second },
		},
		{
			name:     "Override with CLI Flags",
			cliFlags: &CLIFlags{Port: stringPtr("8084"), RateLimitEnabled: boolPtr(true)},
			want: func(c *Config) {
				c.Server.Port = "8084"
				c.Security.RateLimit.Enabled = true
			},
		},
		{
			name:     "Precedence: CLI > Env > File",
			fileName: "config.yaml",
			content:  "server:\n  port: \"8085\"\n  host: filehost\n",
			envVars:  map[string]string{"PORT": "8086", "HOST": "envhost"},
			cliFlags: &CLIFlags{Port: stringPtr("8087")},
			want: func(c *Config) {
				c.Server.Port = "8087"
				c.Server.Host = "envhost"
			},
		},
		{
			name:     "Invalid final configuration",
			cliFlags: &CLIFlags{Port: stringPtr("99999")},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"PORT", "HOST", "APP_ENV", "NODE_ENV", "RUNTIME_VERSION", "DEVSTACK_RATE_LIMIT_ENABLED", "DEVSTACK_SHUTDOWN_TIMEOUT"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.fileName != "" {
				configFile = writeConfigFile(t, tt.fileName, tt.content)
			}
			if tt.missingCfg {
				configFile = filepath.Join(t.TempDir(), "nonexistent.yaml")
			}

			cfg, err := LoadConfig(configFile, tt.cliFlags)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			expected := DefaultConfig()
			tt.want(expected)
			assert.Equal(t, expected, cfg)
		})
	}
}

func TestLoadConfig_OnlyChangedFlagsOverride(t *testing.T) {
	t.Setenv("PORT", "7000")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--env", "ci"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	// --port kept its default so the environment value stands
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, "ci", cfg.App.Environment)
}

func TestRegisterFlags_ConfigPath(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags := RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", "devstack.yaml", "-p", "6000"}))

	assert.Equal(t, "devstack.yaml", flags.ConfigPath())
	assert.Equal(t, "6000", *flags.Port)
	assert.True(t, fs.Changed("port"))

	var nilFlags *CLIFlags
	assert.Empty(t, nilFlags.ConfigPath())
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DEVSTACK_DOTENV_PROBE=from-file\nDEVSTACK_DOTENV_KEEP=from-file\n"), 0o600))

	t.Setenv("DEVSTACK_DOTENV_KEEP", "from-env")
	t.Setenv("DEVSTACK_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("DEVSTACK_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(envFile, filepath.Join(dir, "missing.env")))

	assert.Equal(t, "from-file", os.Getenv("DEVSTACK_DOTENV_PROBE"))
	assert.Equal(t, "from-env", os.Getenv("DEVSTACK_DOTENV_KEEP"), "existing variables must not be overridden")
}

func TestValidateFilePath_RejectsDirectory(t *testing.T) {
	assert.Error(t, validateFilePath(t.TempDir()))
}
