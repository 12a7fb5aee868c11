package observability

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "atsresume/internal/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Workflow events accepted by RecordEvent.
const (
	MetricResumeGenerated   = "resume_generated"
	MetricPDFDownloaded     = "pdf_downloaded"
	MetricValidationFailure = "validation_failure"
	MetricRateLimitHit      = "rate_limit_hit"
)

// Metrics holds the custom instruments. Nil instruments are skipped.
type Metrics struct {
	BackendRequestDuration metric.Float64Histogram
	BackendRequestCount    metric.Int64Counter
	BackendErrorCount      metric.Int64Counter

	ResumesGenerated   metric.Int64Counter
	PDFDownloads       metric.Int64Counter
	ValidationFailures metric.Int64Counter
	RateLimitHits      metric.Int64Counter
}

type counterSpec struct {
	name        string
	description string
	target      *metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	counters := []counterSpec{
		{"atsresume_backend_requests_total", "Total number of resume service requests", &m.BackendRequestCount},
		{"atsresume_backend_errors_total", "Total number of failed resume service requests", &m.BackendErrorCount},
		{"atsresume_resumes_generated_total", "Total number of resume generation attempts", &m.ResumesGenerated},
		{"atsresume_pdf_downloads_total", "Total number of PDF download attempts", &m.PDFDownloads},
		{"atsresume_validation_failures_total", "Total number of form submissions rejected locally", &m.ValidationFailures},
		{"atsresume_rate_limit_hits_total", "Total number of requests rejected by the rate limiter", &m.RateLimitHits},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", c.name, err)
		}
		*c.target = counter
	}

	var err error
	m.BackendRequestDuration, err = meter.Float64Histogram(
		"atsresume_backend_request_duration_seconds",
		metric.WithDescription("Time spent waiting for the resume service"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create backend duration metric: %w", err)
	}
	return m, nil
}

// GetMetrics returns the instruments; they are all nil when metrics are off.
func (om *ObservabilityManager) GetMetrics() *Metrics {
	if om == nil || om.metrics == nil {
		return &Metrics{}
	}
	return om.metrics
}

// ObserveBackendCall records one resume service call. It satisfies
// httpclient.Observer.
func (om *ObservabilityManager) ObserveBackendCall(ctx context.Context, method, path string, status int, duration time.Duration, err error) {
	if om == nil || !om.config.Toggles.Backend {
		return
	}
	m := om.GetMetrics()
	if m.BackendRequestCount == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("operation", operationFor(path)),
		attribute.String("http.method", method),
		attribute.String("http.status_code", strconv.Itoa(status)),
		attribute.Bool("success", err == nil),
	}
	m.BackendRequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	if om.config.Toggles.BackendDuration {
		m.BackendRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	}
	if err != nil {
		attrs = append(attrs, attribute.String("error_type", errorType(err)))
		m.BackendErrorCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordEvent counts a workflow event. It satisfies workflow.Events.
// Unknown events are ignored.
func (om *ObservabilityManager) RecordEvent(ctx context.Context, event string, success bool) {
	if om == nil {
		return
	}
	m := om.GetMetrics()
	toggles := om.config.Toggles

	var counter metric.Int64Counter
	switch event {
	case MetricResumeGenerated:
		counter = pick(toggles.Business, m.ResumesGenerated)
	case MetricPDFDownloaded:
		counter = pick(toggles.Business, m.PDFDownloads)
	case MetricValidationFailure:
		counter = pick(toggles.Business, m.ValidationFailures)
	case MetricRateLimitHit:
		counter = pick(toggles.RateLimits, m.RateLimitHits)
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", success)))
	}
}

func pick(enabled bool, c metric.Int64Counter) metric.Int64Counter {
	if !enabled {
		return nil
	}
	return c
}

func operationFor(path string) string {
	switch {
	case path == "/api/resumes/generate":
		return "generate"
	case strings.HasPrefix(path, "/api/resumes/download/"):
		return "download"
	default:
		return "other"
	}
}

func errorType(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		return string(appErr.Type)
	}
	return "unknown"
}
