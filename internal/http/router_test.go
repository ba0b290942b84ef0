package httpapi

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/platform/logger"
	"trustlessid/internal/platform/metrics"
	rlmodels "trustlessid/internal/ratelimit/models"
	"trustlessid/pkg/platform/httputil"
	authmw "trustlessid/pkg/platform/middleware/auth"
	"trustlessid/pkg/testutil"
)

type fakeProvider struct {
	id  string
	err error
}

func (p fakeProvider) ID() string                   { return p.id }
func (p fakeProvider) Kind() providers.Kind         { return providers.KindDocumentAnalysis }
func (p fakeProvider) Health(context.Context) error { return p.err }

type rejectAll struct{}

func (rejectAll) ValidateToken(context.Context, string) (*authmw.Claims, error) {
	return nil, errors.New("invalid token")
}

type routeFunc func(r chi.Router)

func (f routeFunc) Register(r chi.Router) { f(r) }

type recordingLimiter struct{ scopes []rlmodels.Scope }

func (l *recordingLimiter) RateLimit(scope rlmodels.Scope) func(http.Handler) http.Handler {
	l.scopes = append(l.scopes, scope)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Limited", string(scope))
			next.ServeHTTP(w, r)
		})
	}
}

func newTestRouter(t *testing.T, registry *providers.Registry, limiter RateLimiter) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	ok := func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"ok": "yes"})
	}
	return NewRouter(Deps{
		Logger:       logger.Discard(),
		CORSOrigins:  []string{"http://localhost:3000"},
		Gatherer:     reg,
		HTTPMetrics:  metrics.New(reg),
		Validator:    rejectAll{},
		RateLimiter:  limiter,
		Providers:    registry,
		Verification: routeFunc(func(r chi.Router) { r.Get("/verify", ok) }),
		Protected:    []Registrar{routeFunc(func(r chi.Router) { r.Get("/dashboard", ok) })},
	})
}

func TestHealthReportsDegradedProvider(t *testing.T) {
	registry := providers.NewRegistry()
	require.NoError(t, registry.Register(fakeProvider{id: "a"}))
	require.NoError(t, registry.Register(fakeProvider{id: "b", err: errors.New("down")}))
	h := newTestRouter(t, registry, nil)

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/health"))
	testutil.AssertStatusOK(t, rec)
	report := testutil.DecodeData[HealthReport](t, rec)
	assert.Equal(t, "degraded", report.Status)
	require.Len(t, report.Providers, 2)
	assert.True(t, report.Providers[0].Healthy)
	assert.Equal(t, "down", report.Providers[1].Error)
}

func TestHealthWithoutProviders(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/health"))
	report := testutil.DecodeData[HealthReport](t, rec)
	assert.Equal(t, "ok", report.Status)
	assert.Empty(t, report.Providers)
}

func TestVerifyIsWrappedByRateLimiter(t *testing.T) {
	limiter := &recordingLimiter{}
	h := newTestRouter(t, nil, limiter)

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/verify?id=x"))
	testutil.AssertStatusOK(t, rec)
	assert.Equal(t, "verify", rec.Header().Get("X-Limited"))
	assert.Equal(t, []rlmodels.Scope{rlmodels.ScopeVerify}, limiter.scopes)

	rec = testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/health"))
	assert.Empty(t, rec.Header().Get("X-Limited"))
}

func TestProtectedRoutesRejectInvalidTokens(t *testing.T) {
	h := newTestRouter(t, nil, nil)

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/dashboard"))
	testutil.AssertFailure(t, rec, http.StatusUnauthorized, "")

	req := testutil.NewRequest(t, http.MethodGet, "/dashboard")
	req.Header.Set("Authorization", "Bearer forged")
	rec = testutil.DoRequest(h, req)
	testutil.AssertFailure(t, rec, http.StatusUnauthorized, "")
}

func TestMetricsExposeRouteCounters(t *testing.T) {
	h := newTestRouter(t, nil, nil)
	testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/health"))

	rec := testutil.DoRequest(h, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.Contains(t, rec.Body.String(), `trustlessid_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
