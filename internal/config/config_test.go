package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDotEnv(t *testing.T) Options {
	t.Helper()
	return Options{DotEnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfigWithOptions(noDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.True(t, cfg.API.CircuitBreaker.Enabled)
	assert.Equal(t, uint32(3), cfg.API.CircuitBreaker.MinRequests)
	assert.Equal(t, int64(DefaultMaxFileSize), cfg.App.MaxFileSize)
	assert.Equal(t, "text", cfg.App.DefaultFormat)
	assert.ElementsMatch(t, []string{"json", "text", "markdown"}, cfg.App.SupportedFormats)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Server.SessionTTL)
	assert.False(t, cfg.Observability.Enabled)
	assert.NotEmpty(t, cfg.Observability.ServiceInstance)
	assert.Empty(t, cfg.ConfigFileUsed())
}

func TestLoadConfigEnvironmentOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ATSRESUME_API_BASEURL", "https://resumes.example.com/")
	t.Setenv("ATSRESUME_API_TIMEOUT", "45s")
	t.Setenv("ATSRESUME_SERVER_PORT", "9999")
	t.Setenv("ATSRESUME_APP_LOGLEVEL", "WARN")

	cfg, err := LoadConfigWithOptions(noDotEnv(t))
	require.NoError(t, err)

	assert.Equal(t, "https://resumes.example.com", cfg.API.BaseURL, "trailing slash is trimmed")
	assert.Equal(t, 45*time.Second, cfg.API.Timeout)
	assert.Equal(t, "9999", cfg.Server.Port)
	assert.Equal(t, "warn", cfg.App.LogLevel)
}

func TestLoadConfigDotEnvFile(t *testing.T) {
	t.Chdir(t.TempDir())
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ATSRESUME_API_BASEURL=http://dotenv.local:7000\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("ATSRESUME_API_BASEURL") })

	cfg, err := LoadConfigWithOptions(Options{DotEnvFiles: []string{envFile}})
	require.NoError(t, err)
	assert.Equal(t, "http://dotenv.local:7000", cfg.API.BaseURL)
	assert.Equal(t, []string{envFile}, cfg.envFiles)
}

func TestSourceSummary(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ATSRESUME_SERVER_PORT", "9191")
	t.Setenv("ATSRESUME_STORAGE_S3_KMSKEYID", "arn:aws:kms:secret")

	cfg, err := LoadConfigWithOptions(noDotEnv(t))
	require.NoError(t, err)

	summary := cfg.SourceSummary()
	require.Zero(t, len(summary)%2, "key/value pairs")

	fields := make(map[string]any, len(summary)/2)
	for i := 0; i < len(summary); i += 2 {
		fields[summary[i].(string)] = summary[i+1]
	}
	assert.Equal(t, "none (defaults)", fields["config_file"])
	assert.Equal(t, "localhost:9191", fields["server"])
	assert.ElementsMatch(t,
		[]string{"ATSRESUME_SERVER_PORT=9191", "ATSRESUME_STORAGE_S3_KMSKEYID=***"},
		fields["env_overrides"])
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "config.yaml")
	content := `
api:
  baseURL: http://backend:8081
  timeout: 10s
  circuitBreaker:
    enabled: false
app:
  defaultFormat: markdown
server:
  rateLimit:
    requestsPerMin: 42
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfigWithOptions(Options{ConfigFile: path, DotEnvFiles: noDotEnv(t).DotEnvFiles})
	require.NoError(t, err)

	assert.Equal(t, "http://backend:8081", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.False(t, cfg.API.CircuitBreaker.Enabled)
	assert.Equal(t, "markdown", cfg.App.DefaultFormat)
	assert.Equal(t, 42, cfg.Server.RateLimit.RequestsPerMin)
	assert.Equal(t, path, cfg.ConfigFileUsed())
}

func TestLoadConfigRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unterminated"), 0600))

	_, err := LoadConfigWithOptions(Options{ConfigFile: path, DotEnvFiles: noDotEnv(t).DotEnvFiles})
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: DefaultTimeout,
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:          true,
				FailureThreshold: 0.6,
			},
		},
		App: AppConfig{
			LogLevel:         "info",
			DefaultFormat:    "text",
			SupportedFormats: []string{"json", "text", "markdown"},
			MaxFileSize:      DefaultMaxFileSize,
		},
		Server: ServerConfig{Port: "8080"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		errorMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:     "empty base URL",
			mutate:   func(c *Config) { c.API.BaseURL = " " },
			errorMsg: "API base URL is required",
		},
		{
			name:     "relative base URL",
			mutate:   func(c *Config) { c.API.BaseURL = "localhost:8081" },
			errorMsg: "absolute http(s) URL",
		},
		{
			name:     "unsupported scheme",
			mutate:   func(c *Config) { c.API.BaseURL = "ftp://host" },
			errorMsg: "absolute http(s) URL",
		},
		{
			name:     "zero timeout",
			mutate:   func(c *Config) { c.API.Timeout = 0 },
			errorMsg: "API timeout must be positive",
		},
		{
			name:     "threshold above one",
			mutate:   func(c *Config) { c.API.CircuitBreaker.FailureThreshold = 1.5 },
			errorMsg: "failure threshold",
		},
		{
			name: "threshold ignored when breaker disabled",
			mutate: func(c *Config) {
				c.API.CircuitBreaker.Enabled = false
				c.API.CircuitBreaker.FailureThreshold = 0
			},
		},
		{
			name:     "unknown default format",
			mutate:   func(c *Config) { c.App.DefaultFormat = "xml" },
			errorMsg: "invalid default format: xml",
		},
		{
			name:     "bad log level",
			mutate:   func(c *Config) { c.App.LogLevel = "loud" },
			errorMsg: "invalid log level: loud",
		},
		{
			name:     "non-positive max file size",
			mutate:   func(c *Config) { c.App.MaxFileSize = 0 },
			errorMsg: "max file size must be positive",
		},
		{
			name:     "missing port",
			mutate:   func(c *Config) { c.Server.Port = "" },
			errorMsg: "server port is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestWatchWithoutConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfigWithOptions(noDotEnv(t))
	require.NoError(t, err)

	assert.False(t, cfg.Watch(func(*Config) {}, nil))
}

func TestWatchPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  logLevel: info\n"), 0600))

	cfg, err := LoadConfigWithOptions(Options{ConfigFile: path, DotEnvFiles: noDotEnv(t).DotEnvFiles})
	require.NoError(t, err)

	updates := make(chan *Config, 4)
	require.True(t, cfg.Watch(func(c *Config) { updates <- c }, nil))

	require.NoError(t, os.WriteFile(path, []byte("app:\n  logLevel: debug\n"), 0600))

	select {
	case next := <-updates:
		assert.Equal(t, "debug", next.App.LogLevel)
	case <-time.After(5 * time.Second):
		t.Fatal("config change was not observed")
	}
}
