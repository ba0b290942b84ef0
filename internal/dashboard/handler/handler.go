package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/dashboard"
	id "trustlessid/pkg/domain"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

type Service interface {
	Summary(ctx context.Context, userID id.UserID) (dashboard.Summary, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts GET /dashboard. Requires an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard", h.HandleDashboard)
}

// HandleDashboard handles GET /dashboard.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	summary, err := h.service.Summary(ctx, requestcontext.UserID(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "dashboard request failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, summary)
}
