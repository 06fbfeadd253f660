package bucket

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"smartration/internal/ratelimit/models"
)

const (
	testLimit  = 5
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	now   time.Time
	ctx   context.Context
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "login:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("request over limit denied with retry hint", func() {
		var result *models.Result
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "login:over", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)

		result, err = s.store.Allow(s.ctx, "login:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(60, result.RetryAfter)
	})

	s.Run("window slides", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "login:slide", testLimit, testWindow)
			s.Require().NoError(err)
		}
		s.now = s.now.Add(testWindow + time.Second)

		result, err := s.store.Allow(s.ctx, "login:slide", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit-1, result.Remaining)
	})

	s.Run("keys are independent", func() {
		for range testLimit + 1 {
			_, err := s.store.Allow(s.ctx, "login:a", testLimit, testWindow)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(s.ctx, "login:b", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
	})
}

func (s *InMemoryBucketStoreSuite) TestExpiredWindowsAreSwept() {
	for _, ip := range []string{"login:10.0.0.1", "login:10.0.0.2", "login:10.0.0.3"} {
		_, err := s.store.Allow(s.ctx, ip, testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Len(s.store.buckets, 3)

	s.now = s.now.Add(testWindow + sweepInterval)
	_, err := s.store.Allow(s.ctx, "login:10.0.0.9", testLimit, testWindow)
	s.Require().NoError(err)

	s.Len(s.store.buckets, 1)
	s.Contains(s.store.buckets, "login:10.0.0.9")
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit + 1 {
		_, err := s.store.Allow(s.ctx, "login:reset", testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(s.ctx, "login:reset"))

	result, err := s.store.Allow(s.ctx, "login:reset", testLimit, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestConcurrentAllowNeverExceedsLimit() {
	var allowed atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.store.Allow(s.ctx, "login:race", testLimit, testWindow)
			if err == nil && result.Allowed {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(testLimit), allowed.Load())
}
