package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"trustlessid/internal/ratelimit/metrics"
	"trustlessid/internal/ratelimit/models"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/httputil"
	metadata "trustlessid/pkg/platform/middleware/metadata"
	"trustlessid/pkg/requestcontext"
)

// DefaultVerifyLimit bounds public credential lookups per client IP.
var DefaultVerifyLimit = models.Limit{RequestsPerWindow: 30, Window: time.Minute}

// Store admits or denies a request against a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	primary  Store
	fallback Store
	breaker  *storeBreaker
	limits   map[models.Scope]models.Limit
	logger   *slog.Logger
	metrics  *metrics.Metrics
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback sets the store used while the primary backend is failing.
func WithFallback(store Store) Option {
	return func(m *Middleware) {
		m.fallback = store
	}
}

// WithLimit overrides the budget for a scope.
func WithLimit(scope models.Scope, limit models.Limit) Option {
	return func(m *Middleware) {
		if limit.RequestsPerWindow > 0 && limit.Window > 0 {
			m.limits[scope] = limit
		}
	}
}

func WithMetrics(metrics *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func New(store Store, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: store,
		breaker: &storeBreaker{},
		limits:  map[models.Scope]models.Limit{models.ScopeVerify: DefaultVerifyLimit},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits requests per client IP within scope. Backend errors fail
// open unless the circuit is open and a fallback is configured.
func (m *Middleware) RateLimit(scope models.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			if ip == "" {
				ip = metadata.ClientIPFromRequest(r)
			}
			limit, ok := m.limits[scope]
			if !ok {
				limit = DefaultVerifyLimit
			}

			result, degraded, err := m.check(ctx, models.NewIPKey(scope, ip), limit)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"scope", scope,
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			m.metrics.ObserveDecision(string(scope), result.Allowed)

			if !result.Allowed {
				m.logger.InfoContext(ctx, "rate limit exceeded",
					"scope", scope,
					"request_id", requestcontext.RequestID(ctx),
					"retry_after", result.RetryAfter,
				)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store and routes to the fallback while the
// circuit is open. degraded reports that the fallback decided.
func (m *Middleware) check(ctx context.Context, key string, limit models.Limit) (*models.RateLimitResult, bool, error) {
	result, err := m.primary.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	if err == nil {
		if m.breaker.success() {
			m.metrics.SetDegraded(false)
			return result, false, nil
		}
		if m.fallback == nil {
			return result, false, nil
		}
		// circuit still open until enough consecutive successes
		fb, fbErr := m.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
		return fb, true, fbErr
	}

	m.metrics.IncrementBackendErrors()
	if !m.breaker.failure() || m.fallback == nil {
		return nil, false, err
	}
	m.metrics.SetDegraded(true)
	fb, fbErr := m.fallback.Allow(ctx, key, limit.RequestsPerWindow, limit.Window)
	return fb, true, fbErr
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(max(result.RetryAfter, 1)))
	httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "Too many requests. Please try again later."))
}
