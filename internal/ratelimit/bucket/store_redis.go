package bucket

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"smartration/internal/ratelimit/models"
)

// slidingWindowScript trims the sorted set to the window, then admits the
// request when there is room. Scores are unix milliseconds. Returns
// {allowed, count, oldest}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	count = count + 1
	allowed = 1
end

local oldest = now
local first = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if first[2] then
	oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisBucketStore shares login windows across replicas.
type RedisBucketStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisBucketStore(client redis.UniversalClient) *RedisBucketStore {
	return &RedisBucketStore{client: client, now: time.Now}
}

func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.Result, error) {
	now := s.now()
	vals, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString()).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("sliding window for %s: %w", key, err)
	}
	if len(vals) != 3 {
		return nil, fmt.Errorf("sliding window for %s: unexpected reply %v", key, vals)
	}

	resetAt := time.UnixMilli(vals[2]).Add(window)
	result := &models.Result{
		Allowed:   vals[0] == 1,
		Limit:     limit,
		Remaining: max(limit-int(vals[1]), 0),
		ResetAt:   resetAt,
	}
	if !result.Allowed {
		result.RetryAfter = retryAfter(now, resetAt)
	}
	return result, nil
}

func (s *RedisBucketStore) Reset(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("reset %s: %w", key, err)
	}
	return nil
}
