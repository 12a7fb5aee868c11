package server

import (
	"context"
	"sync"
	"time"

	"atsresume/internal/config"
	atsErrors "atsresume/internal/errors"
	"atsresume/internal/httpclient"
	"atsresume/internal/workflow"
)

// Service is the backend the web UI drives: generation for the form and
// PDF download for the results page. resume.Client satisfies it.
type Service interface {
	workflow.Generator
	workflow.Downloader
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the local web UI
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Largest accepted résumé, and the request body limit derived from it
	MaxFileSize    int64
	MaxRequestSize int64

	// Rate limiting
	RateLimiter *RateLimiter

	// Generated results awaiting display or download
	Sessions *SessionStore

	// Accepted uploads kept across a failed submit
	Drafts *SessionStore

	// Backend access. Start builds both from AppConfig.API when Service is nil.
	Service Service
	Breaker *httpclient.CircuitBreaker

	// Logger
	Logger *atsErrors.Logger

	mu        sync.RWMutex
	rateLimit config.RateLimitConfig
	events    workflow.Events
	pages     *pageSet
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host         string
	Port         string
	Version      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxFileSize  int64
	SessionTTL   time.Duration
	RateLimit    config.RateLimitConfig
}

// multipartOverhead covers the text fields and part headers sent alongside the résumé.
const multipartOverhead = 1 << 20

// ServerConfigFrom derives a ServerConfig from the loaded application config.
func ServerConfigFrom(cfg *config.Config, version string) ServerConfig {
	return ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Version:      version,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		MaxFileSize:  cfg.App.MaxFileSize,
		SessionTTL:   cfg.Server.SessionTTL,
		RateLimit:    cfg.Server.RateLimit,
	}
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *atsErrors.Logger) *Server {
	if logger == nil {
		logger = atsErrors.NewNopLogger()
	}

	var maxRequestSize int64
	if cfg.MaxFileSize > 0 {
		maxRequestSize = cfg.MaxFileSize + multipartOverhead
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxFileSize:    cfg.MaxFileSize,
		MaxRequestSize: maxRequestSize,
		RateLimiter:    NewRateLimiter(cfg.RateLimit, logger),
		Sessions:       NewSessionStore(cfg.SessionTTL, logger),
		Drafts:         NewSessionStore(cfg.SessionTTL, logger),
		Logger:         logger,
		rateLimit:      cfg.RateLimit,
		events:         nopEvents{},
		pages:          mustParsePages(),
	}
}

// Close releases the background goroutines owned by the server.
func (s *Server) Close() {
	s.RateLimiter.Close()
	s.Sessions.Close()
	s.Drafts.Close()
}

func (s *Server) rateLimitConfig() config.RateLimitConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rateLimit
}

func (s *Server) setRateLimitConfig(cfg config.RateLimitConfig) {
	s.mu.Lock()
	s.rateLimit = cfg
	s.mu.Unlock()
	s.RateLimiter.SetLimits(cfg.RequestsPerMin, cfg.BurstCapacity)
}

type nopEvents struct{}

func (nopEvents) RecordEvent(context.Context, string, bool) {}
