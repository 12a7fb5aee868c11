package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/trace"
)

// spanExporter picks where finished spans go. Console output wins over OTLP;
// with neither, spans are dropped.
func (om *ObservabilityManager) spanExporter(ctx context.Context) (trace.SpanExporter, error) {
	switch {
	case om.config.ConsoleOutput:
		var opts []stdouttrace.Option
		if om.config.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		return stdouttrace.New(opts...)
	case om.config.OTLP.Enabled:
		otlp := om.config.OTLP
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlp.Endpoint)}
		if otlp.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		if len(otlp.Headers) > 0 {
			opts = append(opts, otlptracehttp.WithHeaders(otlp.Headers))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return discardSpans{}, nil
	}
}

// metricReaders returns one reader per configured sink. A manual reader is
// used when no sink is configured so instruments still aggregate.
func (om *ObservabilityManager) metricReaders(ctx context.Context) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	every := sdkmetric.WithInterval(om.config.CollectionInterval)

	if om.config.ConsoleOutput {
		exp, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, every))
	}

	if otlp := om.config.OTLP; otlp.Enabled {
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlp.Endpoint)}
		if otlp.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		if len(otlp.Headers) > 0 {
			opts = append(opts, otlpmetrichttp.WithHeaders(otlp.Headers))
		}
		exp, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exp, every))
	}

	reader, mux, err := SetupPrometheusExporter(om.config.Prometheus)
	if err != nil {
		return nil, err
	}
	if reader != nil {
		readers = append(readers, reader)
		if srv := StartPrometheusServer(mux, om.config.Prometheus.Port, om.logger); srv != nil {
			om.shutdownFuncs = append(om.shutdownFuncs, srv.Shutdown)
		}
	}

	if len(readers) == 0 {
		om.manualReader = sdkmetric.NewManualReader()
		readers = append(readers, om.manualReader)
	}
	return readers, nil
}

type discardSpans struct{}

func (discardSpans) ExportSpans(context.Context, []trace.ReadOnlySpan) error { return nil }
func (discardSpans) Shutdown(context.Context) error                         { return nil }
