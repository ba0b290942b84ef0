package bucket

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"trustlessid/internal/ratelimit/models"
)

// slidingWindowScript keeps one sorted-set member per admitted request, scored
// by its arrival in milliseconds. Expired members are trimmed before counting.
//
// KEYS[1] bucket key
// ARGV: now_ms, window_ms, limit, cost, member prefix
// Returns {allowed, count, oldest_ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local cost = tonumber(ARGV[4])
redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count + cost <= limit then
  for i = 1, cost do
    redis.call("ZADD", key, now, ARGV[5] .. ":" .. i)
  end
  count = count + cost
  allowed = 1
end
redis.call("PEXPIRE", key, window)
local oldest = now
local first = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

// RedisBucketStore implements the sliding window on Redis so replicas share
// one budget per key.
type RedisBucketStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewRedisBucketStore wraps a Redis client.
func NewRedisBucketStore(client redis.UniversalClient, opts ...RedisOption) *RedisBucketStore {
	s := &RedisBucketStore{client: client, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RedisOption configures a RedisBucketStore.
type RedisOption func(*RedisBucketStore)

// WithRedisClock overrides the time source used for scores.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisBucketStore) {
		if now != nil {
			s.now = now
		}
	}
}

// Allow checks if a request is allowed and records it when it is.
func (s *RedisBucketStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	return s.AllowN(ctx, key, 1, limit, window)
}

// AllowN admits a request costing `cost` slots atomically.
func (s *RedisBucketStore) AllowN(ctx context.Context, key string, cost int, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if s.client == nil {
		return nil, errors.New("redis client is nil")
	}
	cost = max(cost, 1)
	windowMS := window.Milliseconds()
	if windowMS <= 0 {
		windowMS = 1000
	}
	now := s.now()
	nowMS := now.UnixMilli()

	raw, err := slidingWindowScript.Run(ctx, s.client, []string{key},
		nowMS, windowMS, limit, cost, uuid.NewString(),
	).Result()
	if err != nil {
		return nil, fmt.Errorf("run sliding window script: %w", err)
	}
	values, ok := raw.([]any)
	if !ok || len(values) != 3 {
		return nil, errors.New("unexpected sliding window response")
	}
	allowed, err := toInt64(values[0])
	if err != nil {
		return nil, err
	}
	count, err := toInt64(values[1])
	if err != nil {
		return nil, err
	}
	oldestMS, err := toInt64(values[2])
	if err != nil {
		return nil, err
	}

	resetAt := time.UnixMilli(oldestMS + windowMS)
	if allowed == 1 {
		return &models.RateLimitResult{
			Allowed:   true,
			Limit:     limit,
			Remaining: max(limit-int(count), 0),
			ResetAt:   resetAt,
		}, nil
	}
	return &models.RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: models.RetryAfterSeconds(now, resetAt),
	}, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case uint64:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("unexpected redis integer type %T", v)
	}
}
