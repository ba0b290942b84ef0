package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"trustlessid/internal/evidence/providers"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

const healthCheckTimeout = 2 * time.Second

// HealthReport is the GET /health payload. Status is "degraded" when any
// provider fails its check; the endpoint still answers 200.
type HealthReport struct {
	Status    string             `json:"status"`
	Providers []providers.Status `json:"providers"`
	CheckedAt time.Time          `json:"checkedAt"`
}

type healthHandler struct {
	registry *providers.Registry
	logger   *slog.Logger
}

func newHealthHandler(registry *providers.Registry, logger *slog.Logger) *healthHandler {
	return &healthHandler{registry: registry, logger: logger}
}

func (h *healthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	report := HealthReport{Status: "ok", Providers: []providers.Status{}, CheckedAt: requestcontext.Now(ctx)}
	if h.registry != nil {
		report.Providers = h.registry.Check(ctx)
	}
	for _, st := range report.Providers {
		if !st.Healthy {
			report.Status = "degraded"
			h.logger.WarnContext(ctx, "provider unhealthy",
				"request_id", requestcontext.RequestID(ctx),
				"provider", st.ID,
				"error", st.Error,
			)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
