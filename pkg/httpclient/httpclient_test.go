package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/dressrental/pkg/errors"
)

func fastConfig() Config {
	return Config{
		Timeout:      time.Second,
		MaxRetries:   2,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, _ := io.ReadAll(r.Body)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), fastConfig())
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPut, srv.URL, bytes.NewReader([]byte(`{"dress_id":7}`)))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, `{"dress_id":7}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryPost(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), fastConfig())
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, srv.URL+"/rentals/checkout",
		bytes.NewReader([]byte(`{"items":[]}`)))
	require.NoError(t, err)

	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestIsIdempotent(t *testing.T) {
	for _, m := range []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete} {
		assert.True(t, isIdempotent(m), m)
	}
	for _, m := range []string{http.MethodPost, http.MethodPatch} {
		assert.False(t, isIdempotent(m), m)
	}
}

func TestClient_ReturnsLastServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), fastConfig())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewWithHTTPClient(srv.Client(), fastConfig())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	resp, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewWithHTTPClient(srv.Client(), fastConfig())
	req, _ := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	_, err := c.Do(ctx, req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableError(t *testing.T) {
	assert.False(t, isRetryableError(context.Canceled))
	assert.False(t, isRetryableError(errors.New("plain")))
}

func newResponse(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(body))}
}

func TestParseResponseError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		code     string
		sentinel error
	}{
		{"not found", http.StatusNotFound, `{"error":{"code":"NOT_FOUND","message":"dress with id 7 not found"}}`, "NOT_FOUND", apperrors.ErrNotFound},
		{"already exists", http.StatusConflict, `{"error":{"code":"ALREADY_EXISTS","message":"dup"}}`, "ALREADY_EXISTS", apperrors.ErrAlreadyExists},
		{"conflict", http.StatusConflict, `{"error":{"code":"CONFLICT","message":"cancelled"}}`, "CONFLICT", apperrors.ErrConflict},
		{"unauthorized", http.StatusUnauthorized, `{"error":{"code":"UNAUTHORIZED","message":"sign in"}}`, "UNAUTHORIZED", apperrors.ErrUnauthorized},
		{"validation", http.StatusBadRequest, `{"error":{"code":"VALIDATION_ERROR","message":"bad"}}`, "VALIDATION_ERROR", apperrors.ErrInvalidInput},
		{"unstructured 502", http.StatusBadGateway, `<html>bad gateway</html>`, "HTTP_502", apperrors.ErrInternal},
		{"unavailable", http.StatusServiceUnavailable, ``, "HTTP_503", apperrors.ErrServiceUnavail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseResponseError(newResponse(tt.status, tt.body), "storefront-api")
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.status, appErr.Status)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Contains(t, appErr.Message, "storefront-api")
		})
	}
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}

type stubDoer struct {
	status int
	err    error
	calls  int
}

func (s *stubDoer) Do(context.Context, *http.Request) (*http.Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return newResponse(s.status, `{}`), nil
}

func tripFast(name string) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig(name)
	cfg.MinRequests = 2
	cfg.Timeout = time.Hour
	return cfg
}

func TestCircuitBreaker_OpensAfterServerErrors(t *testing.T) {
	next := &stubDoer{status: http.StatusInternalServerError}
	cb := NewCircuitBreakerClient(next, tripFast("cb-open"), quiet())

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://api/dresses", http.NoBody)
		_, err := cb.Do(context.Background(), req)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	req, _ := http.NewRequest(http.MethodGet, "http://api/dresses", http.NoBody)
	_, err := cb.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)
}

func TestCircuitBreaker_ClientErrorsDoNotTrip(t *testing.T) {
	next := &stubDoer{status: http.StatusNotFound}
	cb := NewCircuitBreakerClient(next, tripFast("cb-4xx"), quiet())

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest(http.MethodDelete, "http://api/wishlist/items/7", http.NoBody)
		resp, err := cb.Do(context.Background(), req)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestCircuitBreaker_Fallback(t *testing.T) {
	next := &stubDoer{err: errors.New("dial tcp: connection refused")}
	cb := NewCircuitBreakerClient(next, tripFast("cb-fallback"), quiet()).
		WithFallback(func(context.Context, error) (*http.Response, error) {
			return newResponse(http.StatusOK, `{"data":[]}`), nil
		})

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodGet, "http://api/dresses", http.NoBody)
		_, _ = cb.Do(context.Background(), req)
	}

	req, _ := http.NewRequest(http.MethodGet, "http://api/dresses", http.NoBody)
	resp, err := cb.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
