package config

import (
	"os"
	"strings"
)

// applyFallbacks normalizes values and fills in the ones derived from
// other settings.
func (c *Config) applyFallbacks() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.App.LogLevel = strings.ToLower(strings.TrimSpace(c.App.LogLevel))

	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = serviceInstanceID(c.Observability.ServiceName)
	}
}

// serviceInstanceID names this process for telemetry: the service name
// plus the host name when one is available.
func serviceInstanceID(serviceName string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "1"
	}
	return serviceName + "-" + host
}

// overridableEnv lists the variables worth reporting at startup.
var overridableEnv = []string{
	"API_BASEURL",
	"API_TIMEOUT",
	"APP_LOGLEVEL",
	"APP_OUTPUTDIR",
	"SERVER_HOST",
	"SERVER_PORT",
	"STORAGE_S3_REGION",
	"STORAGE_S3_KMSKEYID",
}

// SourceSummary returns slog key/value pairs describing where the
// effective settings came from. Values of key variables are masked.
func (c *Config) SourceSummary() []any {
	file := c.ConfigFileUsed()
	if file == "" {
		file = "none (defaults)"
	}

	var env []string
	for _, name := range overridableEnv {
		full := EnvPrefix + "_" + name
		value, ok := os.LookupEnv(full)
		if !ok || value == "" {
			continue
		}
		if strings.Contains(name, "KEY") {
			value = "***"
		}
		env = append(env, full+"="+value)
	}

	return []any{
		"config_file", file,
		"env_files", c.envFiles,
		"env_overrides", env,
		"api_base_url", c.API.BaseURL,
		"api_timeout", c.API.Timeout.String(),
		"circuit_breaker", c.API.CircuitBreaker.Enabled,
		"server", c.Server.Host + ":" + c.Server.Port,
		"log_level", c.App.LogLevel,
		"observability", c.Observability.Enabled,
	}
}
