package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/verification"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

// Service performs public lookups.
type Service interface {
	Lookup(ctx context.Context, rawID string) (verification.PublicVerification, error)
}

// Handler serves the public verification endpoint. It is the only endpoint
// usable without authentication besides login and health.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts GET /verify. Callers wrap the router with rate limiting.
func (h *Handler) Register(r chi.Router) {
	r.Get("/verify", h.HandleVerify)
}

// HandleVerify handles GET /verify?id=.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawID := r.URL.Query().Get("id")

	result, err := h.service.Lookup(ctx, rawID)
	if err != nil {
		h.logger.InfoContext(ctx, "credential lookup failed",
			"request_id", requestcontext.RequestID(ctx),
			"client_ip", requestcontext.ClientIP(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential verified",
		"request_id", requestcontext.RequestID(ctx),
		"credential_id", result.CredentialID,
		"is_valid", result.IsValid,
		"trust_score", result.TrustScore,
	)
	httputil.WriteJSON(w, http.StatusOK, result)
}
