package common

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryHandler_ShouldRetry(t *testing.T) {
	handler := NewRetryHandler(RetryHandlerConfig{
		MaxRetries:       3,
		BaseDelay:        time.Second,
		MaxDelay:         time.Minute,
		RetryStatusCodes: []int{429, 502},
	}, zerolog.Nop())

	tests := []struct {
		name       string
		statusCode int
		attempt    int
		expected   bool
	}{
		{"Should retry 429 on first attempt", 429, 0, true},
		{"Should retry 502 on first attempt", 502, 0, true},
		{"Should not retry 200", 200, 0, false},
		{"Should not retry 404", 404, 0, false},
		{"Should not retry after max attempts", 429, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.ShouldRetry(tt.statusCode, tt.attempt))
		})
	}
}

func TestRetryHandler_CalculateDelay(t *testing.T) {
	handler := NewRetryHandler(RetryHandlerConfig{
		MaxRetries:       3,
		BaseDelay:        time.Second,
		MaxDelay:         10 * time.Second,
		RetryStatusCodes: []int{429},
	}, zerolog.Nop())

	tests := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{"First attempt", 0, time.Second},
		{"Second attempt", 1, 2 * time.Second},
		{"Third attempt", 2, 4 * time.Second},
		{"Fourth attempt", 3, 8 * time.Second},
		{"Fifth attempt (capped)", 4, 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, handler.CalculateDelay(tt.attempt))
		})
	}
}

func TestRetryHandler_CalculateDelayWithJitter(t *testing.T) {
	handler := NewRetryHandler(RetryHandlerConfig{BaseDelay: time.Second, MaxDelay: time.Minute, EnableJitter: true}, zerolog.Nop())

	for i := 0; i < 100; i++ {
		delay := handler.CalculateDelay(1)
		assert.GreaterOrEqual(t, delay, 2*time.Second)
		assert.Less(t, delay, 2*time.Second+200*time.Millisecond)
	}
}

func newTestRetryHandler() *RetryHandler {
	return NewRetryHandler(RetryHandlerConfig{
		MaxRetries:       3,
		BaseDelay:        10 * time.Millisecond,
		MaxDelay:         100 * time.Millisecond,
		RetryStatusCodes: []int{429},
	}, zerolog.Nop())
}

func TestRetryHandler_Do_RateLimited(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body), "body is replayed on every attempt")

		if attempts.Add(1) <= 2 {
			w.Header().Set("Retry-After", "0.01")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("success"))
	}))
	defer server.Close()

	newRequest := func() (*http.Request, error) {
		return http.NewRequest(http.MethodPost, server.URL, strings.NewReader("payload"))
	}

	resp, err := newTestRetryHandler().Do(context.Background(), server.Client(), newRequest)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "success", string(body))
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetryHandler_Do_ExhaustedReturnsLastResponse(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	resp, err := newTestRetryHandler().Do(context.Background(), server.Client(), func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, server.URL, nil)
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, int32(4), attempts.Load())
}

func TestRetryHandler_Do_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	handler := NewRetryHandler(RetryHandlerConfig{MaxRetries: 1, MaxDelay: time.Minute, RetryStatusCodes: []int{429}}, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := handler.Do(ctx, server.Client(), func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
