// Package httpclient is the single configured channel to the resume
// optimization service. It classifies every failure as either a network
// failure (no response) or a service failure (non-2xx response) and logs it.
package httpclient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"atsresume/internal/config"
	"atsresume/internal/errors"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultContentType is used for requests that carry a body but name no type.
const DefaultContentType = "multipart/form-data"

// RequestIDHeader carries the per-call correlation ID.
const RequestIDHeader = "X-Request-ID"

const maxErrorBody = 64 * 1024

// Request describes one call relative to the base URL.
type Request struct {
	Method      string
	Path        string
	Body        io.Reader
	ContentType string
	Accept      string
}

// Response is a fully read 2xx response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Observer receives one callback per completed call. The observability
// package implements it.
type Observer interface {
	ObserveBackendCall(ctx context.Context, method, path string, status int, duration time.Duration, err error)
}

// Client performs requests against the resume service
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *CircuitBreaker
	breakerSet bool
	logger     *errors.Logger
	observer   Observer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for failure reporting.
func WithLogger(logger *errors.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithObserver attaches a metrics observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithCircuitBreaker overrides the breaker built from configuration. Passing nil disables it.
func WithCircuitBreaker(cb *CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
		c.breakerSet = true
	}
}

// New creates a client from the API configuration.
func New(cfg config.APIConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = config.DefaultBaseURL
	}

	c := &Client{
		baseURL:   baseURL,
		userAgent: cfg.UserAgent,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: errors.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.breakerSet {
		c.breaker = NewCircuitBreaker("resume-service", cfg.CircuitBreaker, c.logger)
	}
	return c
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Breaker exposes the circuit breaker for health and stats reporting.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// Do sends req and returns the response body when the status is 2xx.
// Failures are *errors.AppError values of type network or service.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	start := time.Now()

	httpReq, err := c.newHTTPRequest(ctx, req, requestID)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to build request", err)
	}

	resp, err := c.breaker.Execute(func() (*Response, error) {
		return c.roundTrip(httpReq, requestID)
	})
	if err != nil {
		err = classifyBreakerError(err)
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	} else if code, ok := StatusCode(err); ok {
		status = code
	}
	if c.observer != nil {
		c.observer.ObserveBackendCall(ctx, req.Method, req.Path, status, time.Since(start), err)
	}

	if err != nil {
		c.logFailure(err, req, requestID)
		return nil, err
	}
	return resp, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request, requestID string) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+req.Path, req.Body)
	if err != nil {
		return nil, err
	}

	if req.Body != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = DefaultContentType
		}
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Accept != "" {
		httpReq.Header.Set("Accept", req.Accept)
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}
	httpReq.Header.Set(RequestIDHeader, requestID)
	return httpReq, nil
}

func (c *Client) roundTrip(httpReq *http.Request, requestID string) (*Response, error) {
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, networkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, serviceError(httpResp.StatusCode, body)
	}

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, networkError(err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       body,
		RequestID:  requestID,
	}, nil
}

func (c *Client) logFailure(err error, req Request, requestID string) {
	args := []any{"method", req.Method, "path", req.Path, "request_id", requestID}
	if msg, ok := ServerMessage(err); ok {
		c.logger.LogError(err, "Resume service returned an error", append(args, "server_message", msg)...)
		return
	}
	c.logger.LogError(err, "Resume service request failed", args...)
}

func networkError(err error) *errors.AppError {
	var netErr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || (stderrors.As(err, &netErr) && netErr.Timeout()) {
		return errors.NewNetworkError(errors.ErrCodeNetworkTimeout, "The resume service did not respond in time", err)
	}
	if stderrors.Is(err, context.Canceled) {
		return errors.NewNetworkError(errors.ErrCodeNetworkFailure, "Request was cancelled", err)
	}
	return errors.NewNetworkError(errors.ErrCodeNetworkFailure, "Unable to reach the resume service", err)
}

// errorBody is the shape of JSON error responses from the service.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func serviceError(status int, body []byte) *errors.AppError {
	var eb errorBody
	msg := ""
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil {
		msg = strings.TrimSpace(eb.Message)
		if msg == "" {
			msg = strings.TrimSpace(eb.Error)
		}
	}

	var appErr *errors.AppError
	if msg != "" {
		appErr = errors.NewServiceError(errors.ErrCodeServiceError, msg, nil).
			WithContext("server_message", msg)
	} else {
		appErr = errors.NewServiceError(errors.ErrCodeServiceError,
			fmt.Sprintf("resume service responded with %d %s", status, http.StatusText(status)), nil)
	}
	return appErr.WithContext("status_code", status)
}

func classifyBreakerError(err error) error {
	if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
		return errors.NewNetworkError(errors.ErrCodeCircuitOpen,
			"The resume service is temporarily unavailable", err)
	}
	return err
}

// StatusCode returns the HTTP status carried by a service failure.
func StatusCode(err error) (int, bool) {
	appErr, ok := errors.As(err)
	if !ok || appErr.Type != errors.ErrorTypeService {
		return 0, false
	}
	status, ok := appErr.Context["status_code"].(int)
	return status, ok
}

// ServerMessage returns the message the service put in its error body, if any.
func ServerMessage(err error) (string, bool) {
	appErr, ok := errors.As(err)
	if !ok || appErr.Type != errors.ErrorTypeService {
		return "", false
	}
	msg, ok := appErr.Context["server_message"].(string)
	return msg, ok && msg != ""
}
