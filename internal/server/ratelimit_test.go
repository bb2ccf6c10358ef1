package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestRateLimiterRefill(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewRateLimiter(2, time.Minute)
	defer limiter.Stop()

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "clients have separate buckets")

	now = now.Add(time.Minute)
	assert.True(t, limiter.Allow("10.0.0.1"), "bucket refills after the window")
}

func TestRateLimiterZeroCapacity(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewRateLimiter(0, time.Minute)
	defer limiter.Stop()

	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
}

func TestRateLimiterCleanup(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewRateLimiter(1, time.Minute)
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	limiter.Allow("10.0.0.1")
	now = now.Add(2 * time.Hour)
	limiter.cleanup()

	limiter.mu.Lock()
	remaining := len(limiter.clients)
	limiter.mu.Unlock()
	assert.Zero(t, remaining)

	limiter.Stop()
	limiter.Stop()
}

func TestRateLimitMiddleware(t *testing.T) {
	defer goleak.VerifyNone(t)

	limiter := NewRateLimiter(1, time.Hour)
	defer limiter.Stop()

	h := NewHandler(zap.NewNop(), Dependencies{Limiter: limiter}, 0, "")

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, second.Body.String())

	// The placeholder page is outside /api and never throttled.
	page := httptest.NewRecorder()
	h.ServeHTTP(page, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, page.Code)
}
