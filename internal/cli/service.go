package cli

import (
	"context"
	"time"

	"atsresume/internal/config"
	"atsresume/internal/errors"
	"atsresume/internal/httpclient"
	"atsresume/internal/observability"
	"atsresume/internal/resume"
	"atsresume/internal/workflow"

	oteltrace "go.opentelemetry.io/otel/trace"
)

// resumeService is what the commands need from the backend.
type resumeService interface {
	workflow.Generator
	workflow.Downloader
}

// backend bundles the service with the metrics sink its calls report to.
type backend struct {
	service resumeService
	events  workflow.Events
	tracer  oteltrace.Tracer
	close   func()
}

// span starts the root span of a command. Backend calls made with the
// returned context become its children.
func (b *backend) span(ctx context.Context, name string) (context.Context, func()) {
	if b.tracer == nil {
		return ctx, func() {}
	}
	ctx, span := b.tracer.Start(ctx, name)
	return ctx, func() { span.End() }
}

// newBackend connects to the resume service configured in cfg. Tests replace it.
var newBackend = func(cfg *config.Config, logger *errors.Logger) (*backend, error) {
	om, err := observability.NewObservabilityManager(
		observability.GetObservabilityConfig(cfg, Version), logger)
	if err != nil {
		return nil, err
	}

	client := httpclient.New(cfg.API,
		httpclient.WithLogger(logger),
		httpclient.WithObserver(om),
	)
	return &backend{
		service: resume.NewClient(client),
		events:  om,
		tracer:  om.Tracer("atsresume/cli"),
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := om.Shutdown(ctx); err != nil {
				logger.LogError(err, "Failed to shutdown observability")
			}
		},
	}, nil
}
