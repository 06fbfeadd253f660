package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartration/internal/ratelimit/bucket"
	"smartration/internal/ratelimit/metrics"
	"smartration/internal/ratelimit/models"
	"smartration/pkg/platform/circuit"
	"smartration/pkg/testutil"
)

type failingStore struct {
	calls atomic.Int32
}

func (s *failingStore) Allow(context.Context, string, int, time.Duration) (*models.Result, error) {
	s.calls.Add(1)
	return nil, errors.New("redis: connection refused")
}

func (s *failingStore) Reset(context.Context, string) error {
	return errors.New("redis: connection refused")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func loginRequest(t *testing.T, ip string) *http.Request {
	req := testutil.NewJSONRequest(t, http.MethodPost, "/api/admin/login", map[string]string{"email": "admin@example.com"})
	return testutil.WithClientIP(req, ip)
}

func TestRateLimitLoginRejectsAfterLimit(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	m := New(bucket.NewInMemoryBucketStore(), 2, time.Minute, discardLogger(), WithMetrics(mt))
	h := m.RateLimitLogin()(okHandler())

	for i := range 2 {
		rr := testutil.DoRequest(h, loginRequest(t, "10.0.0.7"))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "2", rr.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"1", "0"}[i], rr.Header().Get("X-RateLimit-Remaining"))
	}

	rr := testutil.DoRequest(h, loginRequest(t, "10.0.0.7"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	var body models.ExceededResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
	assert.Equal(t, "rate_limited", body.Error)
	assert.Positive(t, body.RetryAfter)
	assert.InDelta(t, 1, promtest.ToFloat64(mt.Rejections), 0)

	rr = testutil.DoRequest(h, loginRequest(t, "10.0.0.8"))
	assert.Equal(t, http.StatusOK, rr.Code, "other clients keep their own window")
}

func TestRateLimitLoginSuccessClearsWindow(t *testing.T) {
	loginOK := true
	login := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if loginOK {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	})
	m := New(bucket.NewInMemoryBucketStore(), 2, time.Minute, discardLogger())
	h := m.RateLimitLogin()(login)

	loginOK = false
	assert.Equal(t, http.StatusUnauthorized, testutil.DoRequest(h, loginRequest(t, "10.0.0.7")).Code)
	loginOK = true
	assert.Equal(t, http.StatusOK, testutil.DoRequest(h, loginRequest(t, "10.0.0.7")).Code)

	loginOK = false
	rr := testutil.DoRequest(h, loginRequest(t, "10.0.0.7"))
	assert.Equal(t, http.StatusUnauthorized, rr.Code, "window was cleared by the successful login")
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Remaining"))
}

func TestRateLimitLoginDisabled(t *testing.T) {
	m := New(bucket.NewInMemoryBucketStore(), 1, time.Minute, discardLogger(), WithDisabled(true))
	h := m.RateLimitLogin()(okHandler())
	for range 5 {
		assert.Equal(t, http.StatusOK, testutil.DoRequest(h, loginRequest(t, "10.0.0.7")).Code)
	}
}

func TestRateLimitLoginFailsOpenWithoutFallback(t *testing.T) {
	m := New(&failingStore{}, 1, time.Minute, discardLogger())
	h := m.RateLimitLogin()(okHandler())
	for range 3 {
		rr := testutil.DoRequest(h, loginRequest(t, "10.0.0.7"))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRateLimitLoginUsesFallbackWhileStoreFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	mt := metrics.New(reg)
	primary := &failingStore{}
	breaker := circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithCooldown(time.Hour))
	m := New(primary, 2, time.Minute, discardLogger(),
		WithFallback(bucket.NewInMemoryBucketStore()),
		WithBreaker(breaker),
		WithMetrics(mt),
	)
	h := m.RateLimitLogin()(okHandler())

	assert.Equal(t, http.StatusOK, testutil.DoRequest(h, loginRequest(t, "10.0.0.7")).Code)
	assert.Equal(t, http.StatusOK, testutil.DoRequest(h, loginRequest(t, "10.0.0.7")).Code)
	assert.True(t, breaker.IsOpen())
	assert.InDelta(t, 1, promtest.ToFloat64(mt.FallbackOpen), 0)

	rr := testutil.DoRequest(h, loginRequest(t, "10.0.0.7"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "fallback still enforces the limit")
	assert.Equal(t, int32(2), primary.calls.Load(), "open breaker skips the primary store")
	assert.InDelta(t, 2, promtest.ToFloat64(mt.StoreFailures), 0)
}

func TestLoginKeyEscapesSeparators(t *testing.T) {
	assert.Equal(t, "ratelimit:login:2001_db8__1", models.LoginKey("2001:db8::1"))
	assert.Equal(t, "ratelimit:login:unknown", models.LoginKey(""))
}
