package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/evidence/metrics"
	"trustlessid/internal/evidence/vc"
	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

const stubName = "credential_issuer"

// Service is the credential operations the handler needs.
type Service interface {
	Issue(ctx context.Context, req vc.IssueRequest) (models.Credential, error)
	ListForUser(ctx context.Context, userID id.UserID) ([]models.Credential, error)
	Revoke(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (models.Credential, error)
}

// Handler wires credential endpoints to the issuer service.
type Handler struct {
	service Service
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(service Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{service: service, logger: logger, metrics: m}
}

// Register mounts credential endpoints. All of them require an authenticated
// caller.
func (h *Handler) Register(r chi.Router) {
	r.Post("/credentials", h.HandleIssue)
	r.Get("/credentials", h.HandleList)
	r.Post("/credentials/{id}/revoke", h.HandleRevoke)
}

// HandleIssue handles POST /credentials.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[IssueCredentialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	if !req.ParsedUserID().IsNil() && req.ParsedUserID() != caller {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "credentials can only be issued to the caller"))
		return
	}

	start := time.Now()
	cred, err := h.service.Issue(ctx, vc.IssueRequest{
		UserID:     caller,
		DocumentID: req.ParsedDocumentID(),
		Type:       req.ParsedType(),
	})
	h.metrics.ObserveCall(stubName, err, time.Since(start))
	if err != nil {
		h.logger.ErrorContext(ctx, "credential issue failed",
			"request_id", requestID,
			"user_id", caller,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cred)
}

// HandleList handles GET /credentials.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	creds, err := h.service.ListForUser(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "credential listing failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, creds)
}

// HandleRevoke handles POST /credentials/{id}/revoke.
func (h *Handler) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller := requestcontext.UserID(ctx)
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	credentialID, err := id.ParseCredentialID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cred, err := h.service.Revoke(ctx, caller, credentialID)
	if err != nil {
		h.logger.InfoContext(ctx, "credential revoke rejected",
			"request_id", requestID,
			"credential_id", credentialID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "credential revoked",
		"request_id", requestID,
		"credential_id", credentialID,
	)
	httputil.WriteJSON(w, http.StatusOK, cred)
}
