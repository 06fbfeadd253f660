package bucket

import (
	"context"
	"math"
	"sync"
	"time"

	"smartration/internal/ratelimit/models"
)

// InMemoryBucketStore is a per-process sliding window limiter. It backs the
// login throttle when no Redis is configured and whenever Redis is failing.
type InMemoryBucketStore struct {
	mu        sync.Mutex
	buckets   map[string]*slidingWindow
	now       func() time.Time
	lastSweep time.Time
}

// sweepInterval is how often Allow drops windows that have fully expired.
const sweepInterval = time.Minute

type slidingWindow struct {
	timestamps []time.Time
	window     time.Duration
}

type MemoryOption func(*InMemoryBucketStore)

func WithClock(now func() time.Time) MemoryOption {
	return func(s *InMemoryBucketStore) {
		if now != nil {
			s.now = now
		}
	}
}

func NewInMemoryBucketStore(opts ...MemoryOption) *InMemoryBucketStore {
	s := &InMemoryBucketStore{
		buckets: make(map[string]*slidingWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Allow records one request for key if the window still has room.
func (s *InMemoryBucketStore) Allow(_ context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	sw := s.getOrCreateBucket(key, window)
	sw.cleanup(now)

	if len(sw.timestamps) < limit {
		sw.timestamps = append(sw.timestamps, now)
		return &models.Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - len(sw.timestamps),
			ResetAt:   sw.timestamps[0].Add(window),
		}, nil
	}

	resetAt := now.Add(window)
	if len(sw.timestamps) > 0 {
		resetAt = sw.timestamps[0].Add(window)
	}
	return &models.Result{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter(now, resetAt),
	}, nil
}

// Reset clears the window for key.
func (s *InMemoryBucketStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buckets, key)
	return nil
}

// cleanup drops timestamps that have slid out of the window.
func (sw *slidingWindow) cleanup(now time.Time) {
	cutoff := now.Add(-sw.window)
	i := 0
	for ; i < len(sw.timestamps); i++ {
		if sw.timestamps[i].After(cutoff) {
			break
		}
	}
	sw.timestamps = sw.timestamps[i:]
}

// sweep removes keys whose windows hold no timestamps, so idle client IPs do
// not accumulate. Must be called while holding s.mu.
func (s *InMemoryBucketStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for key, sw := range s.buckets {
		sw.cleanup(now)
		if len(sw.timestamps) == 0 {
			delete(s.buckets, key)
		}
	}
}

// Must be called while holding s.mu.
func (s *InMemoryBucketStore) getOrCreateBucket(key string, window time.Duration) *slidingWindow {
	if sw := s.buckets[key]; sw != nil {
		return sw
	}
	sw := &slidingWindow{window: window}
	s.buckets[key] = sw
	return sw
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(math.Ceil(resetAt.Sub(now).Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
