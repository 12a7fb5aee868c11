package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"atsresume/internal/config"
	"atsresume/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	method string
	path   string
	status int
	err    error
}

type fakeObserver struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeObserver) ObserveBackendCall(_ context.Context, method, path string, status int, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{method, path, status, err})
}

func apiConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL: baseURL,
		Timeout: 2 * time.Second,
	}
}

func TestDoSuccess(t *testing.T) {
	var gotContentType, gotRequestID, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get(RequestIDHeader)
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	obs := &fakeObserver{}
	client := New(apiConfig(srv.URL+"/"), WithObserver(obs))

	resp, err := client.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/api/resumes/generate",
		Body:   strings.NewReader("payload"),
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, DefaultContentType, gotContentType)
	assert.Equal(t, "/api/resumes/generate", gotPath)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, gotRequestID, resp.RequestID)

	require.Len(t, obs.calls, 1)
	assert.Equal(t, http.StatusOK, obs.calls[0].status)
	assert.NoError(t, obs.calls[0].err)
}

func TestDoKeepsExplicitContentType(t *testing.T) {
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
	}))
	defer srv.Close()

	client := New(apiConfig(srv.URL))
	_, err := client.Do(context.Background(), Request{
		Method:      http.MethodPost,
		Path:        "/x",
		Body:        strings.NewReader("{}"),
		ContentType: "multipart/form-data; boundary=abc",
	})
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary=abc", gotContentType)
}

func TestDoServiceErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantMessage   string
		wantServerMsg bool
	}{
		{
			name:          "message field",
			status:        http.StatusBadRequest,
			body:          `{"message":"Invalid job description"}`,
			wantMessage:   "Invalid job description",
			wantServerMsg: true,
		},
		{
			name:          "error field",
			status:        http.StatusUnprocessableEntity,
			body:          `{"error":"resume could not be parsed"}`,
			wantMessage:   "resume could not be parsed",
			wantServerMsg: true,
		},
		{
			name:        "non-json body",
			status:      http.StatusInternalServerError,
			body:        "<html>oops</html>",
			wantMessage: "resume service responded with 500 Internal Server Error",
		},
		{
			name:        "empty body",
			status:      http.StatusNotFound,
			wantMessage: "resume service responded with 404 Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			client := New(apiConfig(srv.URL))
			_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/p"})
			require.Error(t, err)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeService, appErr.Type)
			assert.Equal(t, tt.wantMessage, appErr.Message)

			status, ok := StatusCode(err)
			assert.True(t, ok)
			assert.Equal(t, tt.status, status)

			msg, ok := ServerMessage(err)
			assert.Equal(t, tt.wantServerMsg, ok)
			if tt.wantServerMsg {
				assert.Equal(t, tt.wantMessage, msg)
			}
		})
	}
}

func TestDoNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := New(apiConfig(url))
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/p"})
	require.Error(t, err)

	assert.True(t, errors.IsType(err, errors.ErrorTypeNetwork))
	_, ok := StatusCode(err)
	assert.False(t, ok)
	_, ok = ServerMessage(err)
	assert.False(t, ok)
}

func TestDoTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	cfg := apiConfig(srv.URL)
	cfg.Timeout = 50 * time.Millisecond
	client := New(cfg)

	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/slow"})
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeNetwork, appErr.Type)
	assert.Equal(t, errors.ErrCodeNetworkTimeout, appErr.Code)
}

func TestDoDoesNotRetry(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(apiConfig(srv.URL))
	_, err := client.Do(context.Background(), Request{Method: http.MethodGet, Path: "/p"})
	require.Error(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
}

func TestNewAppliesDefaults(t *testing.T) {
	client := New(config.APIConfig{})
	assert.Equal(t, config.DefaultBaseURL, client.BaseURL())
	assert.Equal(t, config.DefaultTimeout, client.httpClient.Timeout)
	assert.Nil(t, client.Breaker(), "breaker disabled in zero config")
}
