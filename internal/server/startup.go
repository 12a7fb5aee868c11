package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"atsresume/internal/config"
	"atsresume/internal/httpclient"
	"atsresume/internal/observability"
	"atsresume/internal/resume"
)

// Start starts the HTTP server with all configured components and blocks
// until SIGINT or SIGTERM.
func (s *Server) Start() error {
	om, err := s.initializeObservability()
	if err != nil {
		return err
	}
	defer s.shutdownObservability(om)

	s.initializeService(om)

	httpServer := s.setupHTTPServer(om)

	if s.watchConfig() {
		s.Logger.Info("Watching config file for changes", "file", s.AppConfig.ConfigFileUsed())
	}

	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// initializeObservability sets up observability components
func (s *Server) initializeObservability() (*observability.ObservabilityManager, error) {
	obsConfig := observability.GetObservabilityConfig(s.AppConfig, s.Version)

	om, err := observability.NewObservabilityManager(obsConfig, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	return om, nil
}

// shutdownObservability handles observability cleanup
func (s *Server) shutdownObservability(om *observability.ObservabilityManager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// initializeService connects to the resume service unless one was injected.
func (s *Server) initializeService(om *observability.ObservabilityManager) {
	if s.Service != nil {
		return
	}

	client := httpclient.New(s.AppConfig.API,
		httpclient.WithLogger(s.Logger),
		httpclient.WithObserver(om),
	)
	s.Breaker = client.Breaker()
	s.Service = resume.NewClient(client)
}

// setupHTTPServer creates and configures the HTTP server
func (s *Server) setupHTTPServer(om *observability.ObservabilityManager) *http.Server {
	addr := fmt.Sprintf("%s:%s", s.Host, s.Port)

	return &http.Server{
		Addr:         addr,
		Handler:      s.Handler(om),
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}
}

// watchConfig applies config file edits while the server runs.
func (s *Server) watchConfig() bool {
	if s.AppConfig == nil {
		return false
	}
	return s.AppConfig.Watch(s.applyConfig, func(err error) {
		s.Logger.LogError(err, "Ignoring invalid config update")
	})
}

// applyConfig takes over the settings that can change without a restart:
// the log level and the rate limit.
func (s *Server) applyConfig(next *config.Config) {
	if err := s.Logger.SetLevel(next.App.LogLevel); err != nil {
		s.Logger.LogError(err, "Ignoring invalid log level", "log_level", next.App.LogLevel)
	}

	before := s.rateLimitConfig()
	after := next.Server.RateLimit
	s.setRateLimitConfig(after)

	s.Logger.Info("Configuration reloaded",
		"log_level", next.App.LogLevel,
		"rate_limit_enabled", after.Enabled,
		"rate_limit_changed", before.Enabled != after.Enabled ||
			before.RequestsPerMin != after.RequestsPerMin ||
			before.BurstCapacity != after.BurstCapacity)
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server", "address", server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		s.Close()
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())

		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.Close()
	s.Logger.Info("Rate limiter and session store stopped")

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}
