package revocation

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "trustlessid:revoked:"

// RedisTRL keeps revoked token ids as expiring Redis keys, so every
// instance sharing the Redis sees the same revocations.
type RedisTRL struct {
	client  *redis.Client
	latency prometheus.Observer
}

type RedisOption func(*RedisTRL)

// WithRegisterer records lookup latency on reg.
func WithRegisterer(reg prometheus.Registerer) RedisOption {
	return func(t *RedisTRL) {
		t.latency = promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "trustlessid_token_revocation_check_seconds",
			Help:    "Latency of Redis token revocation lookups.",
			Buckets: []float64{.0001, .00025, .0005, .001, .0025, .005, .01, .025},
		})
	}
}

func NewRedisTRL(client *redis.Client, opts ...RedisOption) *RedisTRL {
	t := &RedisTRL{client: client}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RevokeToken marks jti revoked for ttl, normally the token's remaining life.
func (t *RedisTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	return t.client.Set(ctx, redisKeyPrefix+jti, time.Now().Unix(), ttl).Err()
}

func (t *RedisTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	if t.latency != nil {
		defer func(start time.Time) { t.latency.Observe(time.Since(start).Seconds()) }(time.Now())
	}
	n, err := t.client.Exists(ctx, redisKeyPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
