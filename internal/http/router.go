package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/platform/metrics"
	rlmodels "trustlessid/internal/ratelimit/models"
	authmw "trustlessid/pkg/platform/middleware/auth"
	"trustlessid/pkg/platform/middleware/metadata"
	"trustlessid/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every feature handler.
type Registrar interface {
	Register(r chi.Router)
}

// PublicRegistrar mounts routes that do not require a token.
type PublicRegistrar interface {
	RegisterPublic(r chi.Router)
}

// RateLimiter wraps a handler chain with a per-scope limit.
type RateLimiter interface {
	RateLimit(scope rlmodels.Scope) func(http.Handler) http.Handler
}

// Deps are the collaborators the router mounts. Handlers are grouped by
// whether they require an authenticated caller.
type Deps struct {
	Logger      *slog.Logger
	CORSOrigins []string
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.Metrics
	Validator   authmw.TokenValidator
	RateLimiter RateLimiter
	Providers   *providers.Registry

	Auth         PublicRegistrar
	Verification Registrar
	Protected    []Registrar
}

// NewRouter wires the public and authenticated endpoints.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(d.HTTPMetrics.Middleware)

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/health", newHealthHandler(d.Providers, d.Logger).ServeHTTP)

	if d.Auth != nil {
		d.Auth.RegisterPublic(r)
	}
	if d.Verification != nil {
		r.Group(func(r chi.Router) {
			if d.RateLimiter != nil {
				r.Use(d.RateLimiter.RateLimit(rlmodels.ScopeVerify))
			}
			d.Verification.Register(r)
		})
	}

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(d.Validator, d.Logger))
		if reg, ok := d.Auth.(Registrar); ok {
			reg.Register(r)
		}
		for _, h := range d.Protected {
			h.Register(r)
		}
	})
	return r
}
