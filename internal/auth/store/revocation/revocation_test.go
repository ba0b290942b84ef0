package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlessid/pkg/platform/sentinel"
)

type trl interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func exercise(t *testing.T, list trl, expire func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	revoked, err := list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, list.RevokeToken(ctx, "jti-1", time.Minute))
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	require.ErrorIs(t, list.RevokeToken(ctx, "jti-2", 0), sentinel.ErrInvalidState)
	require.NoError(t, list.RevokeToken(ctx, "", time.Minute), "empty jti is a no-op")

	expire(2 * time.Minute)
	revoked, err = list.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked, "entries lapse with the token")
}

func TestInMemoryTRL(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	list := NewInMemoryTRL()
	list.now = func() time.Time { return now }

	exercise(t, list, func(d time.Duration) { now = now.Add(d) })
}

func TestRedisTRL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	exercise(t, NewRedisTRL(client, WithRegisterer(reg)), mr.FastForward)

	assert.Equal(t, 1, promtestutil.CollectAndCount(reg, "trustlessid_token_revocation_check_seconds"))
}

func TestRedisTRLSharesRevocationsAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, NewRedisTRL(client).RevokeToken(context.Background(), "jti-shared", time.Hour))

	revoked, err := NewRedisTRL(client).IsRevoked(context.Background(), "jti-shared")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(redisKeyPrefix+"jti-shared"))
}
