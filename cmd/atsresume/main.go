package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"atsresume/internal/cli"
	"atsresume/internal/config"
	"atsresume/internal/errors"
)

func main() {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ATSRESUME_CONFIG points at an explicit config file
	cfg, err := config.LoadConfigWithOptions(config.Options{
		ConfigFile: os.Getenv(config.EnvPrefix + "_CONFIG"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Debug("Starting atsresume", append([]any{"version", cli.Version}, cfg.SourceSummary()...)...)

	if err := cli.Execute(ctx, cfg, logger); err != nil {
		logger.LogError(err, "Application execution failed")
		os.Exit(1)
	}
}
