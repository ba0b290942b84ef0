package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"trustlessid/pkg/platform/strutil"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	Environment   string
	LogLevel      string
	JWTSigningKey string
	TokenTTL      time.Duration
	CORSOrigins   []string
	SeedFixtures  bool

	Redis     RedisConfig
	RateLimit RateLimitConfig
	Stubs     StubConfig
	Kafka     KafkaConfig
}

// RedisConfig configures the optional Redis backend for rate limiting.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RateLimitConfig bounds the public verification endpoint per client IP.
type RateLimitConfig struct {
	Disabled        bool
	VerifyPerWindow int
	Window          time.Duration
}

// StubConfig tunes the simulated AI and issuance stubs.
type StubConfig struct {
	// RemoteBaseURL, when set, routes workflow stub calls over HTTP.
	RemoteBaseURL      string
	Latency            time.Duration
	FailureRate        float64
	Seed               uint64
	CredentialValidity time.Duration
}

// KafkaConfig enables fan-out of activity events.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// CredentialValidity is the default lifetime of an issued credential.
var CredentialValidity = 365 * 24 * time.Hour

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:          envOr("TRUSTLESSID_ADDR", ":8080"),
		Environment:   envOr("APP_ENV", "development"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		TokenTTL:      envDuration("TOKEN_TTL", 24*time.Hour),
		CORSOrigins:   envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		SeedFixtures:  envBool("SEED_FIXTURES", true),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		RateLimit: RateLimitConfig{
			Disabled:        envBool("DISABLE_RATE_LIMITING", false),
			VerifyPerWindow: envInt("VERIFY_RATE_LIMIT", 30),
			Window:          envDuration("VERIFY_RATE_WINDOW", time.Minute),
		},
		Stubs: StubConfig{
			RemoteBaseURL:      os.Getenv("STUB_BASE_URL"),
			Latency:            envDuration("STUB_LATENCY", 0),
			FailureRate:        envFloat("STUB_FAILURE_RATE", 0),
			Seed:               uint64(envInt("STUB_SEED", 0)),
			CredentialValidity: envDuration("CREDENTIAL_VALIDITY", CredentialValidity),
		},
		Kafka: KafkaConfig{
			Brokers: envList("KAFKA_BROKERS", nil),
			Topic:   envOr("KAFKA_ACTIVITY_TOPIC", "trustlessid.activity"),
		},
	}
}

// IsProduction reports whether the service runs with production defaults.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envList(key string, fallback []string) []string {
	if list := strutil.SplitList(os.Getenv(key), ","); len(list) > 0 {
		return list
	}
	return fallback
}
