package bucket

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"trustlessid/internal/ratelimit/models"
)

const (
	testLimit  = 10
	testWindow = time.Minute
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemoryBucketStore(WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(s.ctx, "test:key:allow:first", testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(testLimit-1, result.Remaining)
		s.Equal(s.now.Add(testWindow), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.RateLimitResult
		var err error
		for range testLimit {
			result, err = s.store.Allow(s.ctx, "test:key:allow:limit", testLimit, testWindow)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied with retry hint", func() {
		for range testLimit {
			_, err := s.store.Allow(s.ctx, "test:key:allow:over", testLimit, testWindow)
			require.NoError(s.T(), err)
		}
		result, err := s.store.Allow(s.ctx, "test:key:allow:over", testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(testLimit, result.Limit)
		s.Equal(0, result.Remaining)
		s.Equal(60, result.RetryAfter)
	})
}

func (s *InMemoryBucketStoreSuite) TestSlidingWindow() {
	key := "test:key:sliding"
	start := s.now

	for range 5 {
		_, err := s.store.Allow(s.ctx, key, 6, testWindow)
		s.Require().NoError(err)
	}
	s.now = start.Add(30 * time.Second)
	_, err := s.store.Allow(s.ctx, key, 6, testWindow)
	s.Require().NoError(err)

	s.now = start.Add(45 * time.Second)
	denied, err := s.store.Allow(s.ctx, key, 6, testWindow)
	s.Require().NoError(err)
	s.False(denied.Allowed)
	s.Equal(15, denied.RetryAfter)

	// the first five fall out; the one at +30s remains
	s.now = start.Add(61 * time.Second)
	result, err := s.store.Allow(s.ctx, key, 6, testWindow)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(4, result.Remaining)
	s.Equal(start.Add(30*time.Second).Add(testWindow), result.ResetAt)
}

func (s *InMemoryBucketStoreSuite) TestDeniedRequestsAreNotRecorded() {
	key := "test:key:denied"
	for range 3 {
		_, err := s.store.Allow(s.ctx, key, 2, testWindow)
		s.Require().NoError(err)
	}
	s.Equal(2, s.windowLen(key))
}

func (s *InMemoryBucketStoreSuite) TestAllowN() {
	s.Run("cost of 5 consumes 5 slots", func() {
		result, err := s.store.AllowN(s.ctx, "test:key:allown:five", 5, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(5, result.Remaining)
	})

	s.Run("cost greater than remaining denied", func() {
		first, err := s.store.AllowN(s.ctx, "test:key:allown:deny", 7, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(first.Allowed)

		result, err := s.store.AllowN(s.ctx, "test:key:allown:deny", 4, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
	})
}

func (s *InMemoryBucketStoreSuite) TestIdleBucketsAreEvicted() {
	start := s.now
	for i := range 3 {
		_, err := s.store.Allow(s.ctx, fmt.Sprintf("ratelimit:verify:ip:192.0.2.%d", i), testLimit, testWindow)
		s.Require().NoError(err)
	}
	s.Len(s.store.buckets, 3)

	// a request after every window lapsed sweeps the idle keys
	s.now = start.Add(testWindow + sweepInterval)
	_, err := s.store.Allow(s.ctx, "ratelimit:verify:ip:198.51.100.1", testLimit, testWindow)
	s.Require().NoError(err)
	s.Len(s.store.buckets, 1)
	s.Equal(1, s.windowLen("ratelimit:verify:ip:198.51.100.1"))
}

func (s *InMemoryBucketStoreSuite) TestSweepWaitsForInterval() {
	_, err := s.store.Allow(s.ctx, "ratelimit:verify:ip:192.0.2.9", testLimit, time.Second)
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Second)
	_, err = s.store.Allow(s.ctx, "ratelimit:verify:ip:192.0.2.10", testLimit, time.Second)
	s.Require().NoError(err)
	s.Len(s.store.buckets, 2, "the first sweep ran at the first request")

	s.now = s.now.Add(sweepInterval)
	_, err = s.store.Allow(s.ctx, "ratelimit:verify:ip:192.0.2.10", testLimit, time.Second)
	s.Require().NoError(err)
	s.Len(s.store.buckets, 1)
}

func (s *InMemoryBucketStoreSuite) TestOversizedCostLeavesNoBucket() {
	result, err := s.store.AllowN(s.ctx, "test:key:oversized", testLimit+1, testLimit, testWindow)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.NotContains(s.store.buckets, "test:key:oversized")
}

// windowLen reports how many admitted requests key holds right now.
func (s *InMemoryBucketStoreSuite) windowLen(key string) int {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	sw := s.store.buckets[key]
	if sw == nil {
		return 0
	}
	sw.cleanup(s.now)
	return len(sw.timestamps)
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	limit := 100
	key := "test:key:concurrent"
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for range 200 {
		wg.Go(func() {
			result, err := s.store.Allow(s.ctx, key, limit, testWindow)
			if err != nil || !result.Allowed {
				return
			}
			mu.Lock()
			allowedCount++
			mu.Unlock()
		})
	}

	wg.Wait()
	s.Equal(limit, allowedCount)
}
