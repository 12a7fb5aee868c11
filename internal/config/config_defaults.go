package config

import (
	"time"

	"github.com/spf13/viper"
)

// Defaults shared with callers that build configuration by hand.
const (
	DefaultBaseURL     = "http://localhost:8081"
	DefaultTimeout     = 30 * time.Second
	DefaultMaxFileSize = 10 * 1024 * 1024
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Resume service
	v.SetDefault("api.baseURL", DefaultBaseURL)
	v.SetDefault("api.timeout", DefaultTimeout)
	v.SetDefault("api.userAgent", "atsresume")

	v.SetDefault("api.circuitBreaker.enabled", true)
	v.SetDefault("api.circuitBreaker.maxRequests", 3)
	v.SetDefault("api.circuitBreaker.interval", 60*time.Second)
	v.SetDefault("api.circuitBreaker.timeout", 60*time.Second)
	v.SetDefault("api.circuitBreaker.minRequests", 3)
	v.SetDefault("api.circuitBreaker.failureThreshold", 0.6)

	// App
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", DefaultMaxFileSize)
	v.SetDefault("app.outputDir", ".")

	// Local web form
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 60*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second) // generation can take close to the API timeout
	v.SetDefault("server.idleTimeout", 120*time.Second)
	v.SetDefault("server.sessionTTL", 30*time.Minute)

	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.requestsPerMin", 10)
	v.SetDefault("server.rateLimit.burstCapacity", 3)
	v.SetDefault("server.rateLimit.cleanupInterval", 5*time.Minute)

	// Storage
	v.SetDefault("storage.s3.region", "")
	v.SetDefault("storage.s3.kmsKeyID", "")

	// Observability
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "atsresume")
	v.SetDefault("observability.serviceVersion", "")
	v.SetDefault("observability.serviceInstance", "")
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)

	v.SetDefault("observability.metrics.enabled", true)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	v.SetDefault("observability.customMetrics.backend.enabled", true)
	v.SetDefault("observability.customMetrics.backend.trackDuration", true)
	v.SetDefault("observability.customMetrics.business.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	v.SetDefault("observability.console.prettyPrint", true)

	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
