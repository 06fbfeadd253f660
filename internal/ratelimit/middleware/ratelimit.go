// Package middleware throttles administrator login attempts per client IP.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"smartration/internal/ratelimit/metrics"
	"smartration/internal/ratelimit/models"
	"smartration/pkg/platform/circuit"
	"smartration/pkg/platform/httputil"
	"smartration/pkg/requestcontext"
)

// BucketStore is a sliding window counter.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error)
	Reset(ctx context.Context, key string) error
}

type Middleware struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limit    int
	window   time.Duration
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns the throttle into a pass-through (demo and load tests).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback sets the store used while the primary store's breaker is open.
func WithFallback(store BucketStore) Option {
	return func(m *Middleware) {
		m.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) {
		if b != nil {
			m.breaker = b
		}
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(primary BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Middleware{
		primary: primary,
		limit:   limit,
		window:  window,
		logger:  logger,
		breaker: circuit.New("ratelimit-store"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("login rate limiting disabled")
	}
	return m
}

// RateLimitLogin rejects requests once the client IP exhausts its window. A
// successful login clears the client's window.
// Store errors fail open unless a fallback store is configured.
func (m *Middleware) RateLimitLogin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			key := models.LoginKey(ip)
			result, err := m.check(ctx, key)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check login rate limit", "error", err, "client_ip", ip)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.IncrementRejections()
				}
				m.logger.WarnContext(ctx, "login attempt throttled", "client_ip", ip, "retry_after", result.RetryAfter)
				writeRateLimitExceeded(w, result)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status == http.StatusOK {
				m.reset(ctx, key)
			}
		})
	}
}

func (m *Middleware) reset(ctx context.Context, key string) {
	stores := []BucketStore{m.primary}
	if m.fallback != nil {
		stores = append(stores, m.fallback)
	}
	for _, store := range stores {
		if err := store.Reset(ctx, key); err != nil {
			m.logger.WarnContext(ctx, "failed to clear login rate limit", "key", key, "error", err)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (m *Middleware) check(ctx context.Context, key string) (*models.Result, error) {
	if m.fallback != nil && !m.breaker.Allow() {
		return m.fallback.Allow(ctx, key, m.limit, m.window)
	}

	result, err := m.primary.Allow(ctx, key, m.limit, m.window)
	if err != nil {
		if m.metrics != nil {
			m.metrics.IncrementStoreFailures()
		}
		if _, change := m.breaker.RecordFailure(); change.Opened {
			m.logger.WarnContext(ctx, "rate limit store failing, switching to in-memory fallback", "error", err)
			m.setFallback(true)
		}
		if m.fallback != nil {
			return m.fallback.Allow(ctx, key, m.limit, m.window)
		}
		return nil, err
	}

	if _, change := m.breaker.RecordSuccess(); change.Closed {
		m.logger.InfoContext(ctx, "rate limit store recovered")
		m.setFallback(false)
	}
	return result, nil
}

func (m *Middleware) setFallback(active bool) {
	if m.metrics != nil {
		m.metrics.SetFallback(active)
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
		Error:      "rate_limited",
		Message:    "Too many login attempts. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
