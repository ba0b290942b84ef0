package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/document"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

type Service interface {
	ListForUser(ctx context.Context, userID id.UserID) ([]document.Document, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/documents", h.HandleList)
}

// HandleList handles GET /documents.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	docs, err := h.service.ListForUser(ctx, userID)
	if err != nil {
		h.logger.ErrorContext(ctx, "document listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, docs)
}
