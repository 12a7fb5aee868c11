package observability

import (
	"time"

	"atsresume/internal/config"
)

const (
	defaultServiceName        = "atsresume"
	defaultServiceInstance    = "atsresume-1"
	defaultCollectionInterval = 15 * time.Second
	defaultMetricsEndpoint    = "/metrics"
	defaultMetricsPort        = "9090"
)

// ObservabilityConfig is the resolved observability setup. Everything the
// manager needs is copied out of the application config up front.
type ObservabilityConfig struct {
	ServiceName     string
	ServiceVersion  string
	ServiceInstance string
	Enabled         bool
	ConsoleOutput   bool
	PrettyPrint     bool
	SampleRate      float64

	// MetricsEnabled turns the meter provider on. Traces do not depend on it.
	MetricsEnabled     bool
	CollectionInterval time.Duration
	Toggles            MetricToggles

	OTLP       OTLPConfig
	Prometheus PrometheusConfig
}

// MetricToggles selects the custom metric groups that are recorded.
type MetricToggles struct {
	Backend         bool
	BackendDuration bool
	Business        bool
	RateLimits      bool
}

// OTLPConfig points the OTLP/HTTP exporters at a collector.
type OTLPConfig struct {
	Enabled  bool
	Endpoint string
	Insecure bool
	Headers  map[string]string
}

// GetObservabilityConfig resolves the observability section of cfg. A nil
// cfg yields a disabled setup.
func GetObservabilityConfig(cfg *config.Config, version string) ObservabilityConfig {
	if cfg == nil {
		return ObservabilityConfig{
			ServiceName:        defaultServiceName,
			ServiceVersion:     version,
			ServiceInstance:    defaultServiceInstance,
			SampleRate:         1.0,
			CollectionInterval: defaultCollectionInterval,
			Prometheus:         GetPrometheusConfig(nil),
		}
	}

	o := cfg.Observability
	resolved := ObservabilityConfig{
		ServiceName:        valueOr(o.ServiceName, defaultServiceName),
		ServiceVersion:     valueOr(o.ServiceVersion, version),
		ServiceInstance:    valueOr(o.ServiceInstance, defaultServiceInstance),
		Enabled:            o.Enabled,
		ConsoleOutput:      o.ConsoleOutput,
		PrettyPrint:        o.Console.PrettyPrint,
		SampleRate:         o.SampleRate,
		MetricsEnabled:     o.Metrics.Enabled,
		CollectionInterval: o.Metrics.CollectionInterval,
		Toggles: MetricToggles{
			Backend:         o.CustomMetrics.Backend.Enabled,
			BackendDuration: o.CustomMetrics.Backend.TrackDuration,
			Business:        o.CustomMetrics.Business.Enabled,
			RateLimits:      o.CustomMetrics.Infrastructure.Enabled && o.CustomMetrics.Infrastructure.TrackRateLimits,
		},
		OTLP: OTLPConfig{
			Enabled:  o.OTLP.Enabled,
			Endpoint: o.OTLP.Endpoint,
			Insecure: o.OTLP.Insecure,
			Headers:  o.OTLP.Headers,
		},
		Prometheus: GetPrometheusConfig(cfg),
	}
	if resolved.CollectionInterval <= 0 {
		resolved.CollectionInterval = defaultCollectionInterval
	}
	return resolved
}

// GetPrometheusConfig resolves the scrape endpoint settings of cfg.
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Endpoint: defaultMetricsEndpoint, Port: defaultMetricsPort}
	}

	p := cfg.Observability.Prometheus
	return PrometheusConfig{
		Enabled:  p.Enabled,
		Endpoint: valueOr(p.Endpoint, defaultMetricsEndpoint),
		Port:     valueOr(p.Port, defaultMetricsPort),
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
