package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	apperrors "atsresume/internal/errors"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ObservabilityManager owns the tracer and meter providers of one process.
// A manager built from a disabled config is valid and records nothing.
type ObservabilityManager struct {
	config         ObservabilityConfig
	logger         *apperrors.Logger
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	manualReader   *sdkmetric.ManualReader
	metrics        *Metrics
	shutdownFuncs  []func(context.Context) error
}

// NewObservabilityManager installs the global OpenTelemetry providers
// described by cfg.
func NewObservabilityManager(cfg ObservabilityConfig, logger *apperrors.Logger) (*ObservabilityManager, error) {
	if logger == nil {
		logger = apperrors.NewNopLogger()
	}
	om := &ObservabilityManager{config: cfg, logger: logger, metrics: &Metrics{}}
	if !cfg.Enabled {
		return om, nil
	}

	ctx := context.Background()
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"resource", om.initResource},
		{"tracing", om.initTracing},
		{"metrics", om.initMetrics},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			_ = om.Shutdown(ctx)
			return nil, fmt.Errorf("failed to initialize %s: %w", step.name, err)
		}
	}

	logger.Debug("Observability initialized",
		"service", cfg.ServiceName,
		"console", cfg.ConsoleOutput,
		"otlp", cfg.OTLP.Enabled,
		"prometheus", cfg.Prometheus.Enabled)
	return om, nil
}

func (om *ObservabilityManager) initResource(context.Context) error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.config.ServiceVersion),
			attribute.String("service.instance.id", om.config.ServiceInstance),
		),
	)
	if err != nil {
		return err
	}
	om.resource = res
	return nil
}

func (om *ObservabilityManager) initTracing(ctx context.Context) error {
	exporter, err := om.spanExporter(ctx)
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	om.tracerProvider = trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.SampleRate))),
	)
	otel.SetTracerProvider(om.tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	om.shutdownFuncs = append(om.shutdownFuncs, om.tracerProvider.Shutdown)
	return nil
}

func (om *ObservabilityManager) initMetrics(ctx context.Context) error {
	if !om.config.MetricsEnabled {
		return nil
	}

	readers, err := om.metricReaders(ctx)
	if err != nil {
		return err
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, r := range readers {
		opts = append(opts, sdkmetric.WithReader(r))
	}
	om.meterProvider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(om.meterProvider)
	om.shutdownFuncs = append(om.shutdownFuncs, om.meterProvider.Shutdown)

	metrics, err := newMetrics(om.meterProvider.Meter(om.config.ServiceName))
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

// HTTPMiddleware wraps handlers with server spans and request metrics.
func (om *ObservabilityManager) HTTPMiddleware() func(http.Handler) http.Handler {
	if om == nil || !om.config.Enabled {
		return func(h http.Handler) http.Handler { return h }
	}

	opts := []otelhttp.Option{otelhttp.WithTracerProvider(om.tracerProvider)}
	if om.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(om.meterProvider))
	}
	return otelhttp.NewMiddleware(om.config.ServiceName, opts...)
}

// Tracer returns a named tracer, or a no-op tracer when disabled.
func (om *ObservabilityManager) Tracer(name string) oteltrace.Tracer {
	if om == nil || om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// Shutdown flushes and stops every provider and the scrape server. All of
// them are attempted; the errors are joined.
func (om *ObservabilityManager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	var errs []error
	for i := len(om.shutdownFuncs) - 1; i >= 0; i-- {
		if err := om.shutdownFuncs[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	om.shutdownFuncs = nil
	return errors.Join(errs...)
}
