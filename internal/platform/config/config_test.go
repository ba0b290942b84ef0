package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"TRUSTLESSID_ADDR", "REDIS_URL", "KAFKA_BROKERS", "STUB_BASE_URL", "VERIFY_RATE_LIMIT", "SEED_FIXTURES"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Redis.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 30, cfg.RateLimit.VerifyPerWindow)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, CredentialValidity, cfg.Stubs.CredentialValidity)
	assert.True(t, cfg.SeedFixtures)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("TRUSTLESSID_ADDR", ":9090")
	t.Setenv("APP_ENV", "production")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,,")
	t.Setenv("STUB_FAILURE_RATE", "0.25")
	t.Setenv("STUB_LATENCY", "150ms")
	t.Setenv("VERIFY_RATE_LIMIT", "not-a-number")
	t.Setenv("SEED_FIXTURES", "false")

	cfg := FromEnv()
	assert.Equal(t, ":9090", cfg.Addr)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.InDelta(t, 0.25, cfg.Stubs.FailureRate, 1e-9)
	assert.Equal(t, 150*time.Millisecond, cfg.Stubs.Latency)
	assert.Equal(t, 30, cfg.RateLimit.VerifyPerWindow)
	assert.False(t, cfg.SeedFixtures)
}
