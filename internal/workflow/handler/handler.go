package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/auth/models"
	"trustlessid/internal/workflow"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

// Service is the workflow runner used by the handler.
type Service interface {
	Start(ctx context.Context, userID id.UserID, prefill workflow.Details) (workflow.Session, error)
	Get(ctx context.Context, userID id.UserID, sessionID id.SessionID) (workflow.Session, error)
	SubmitDetails(ctx context.Context, userID id.UserID, sessionID id.SessionID, details workflow.Details) (workflow.Session, error)
	Back(ctx context.Context, userID id.UserID, sessionID id.SessionID) (workflow.Session, error)
	SubmitDocument(ctx context.Context, userID id.UserID, sessionID id.SessionID, upload workflow.DocumentUpload) (workflow.Session, error)
	Restart(ctx context.Context, userID id.UserID, sessionID id.SessionID, prefill workflow.Details) (workflow.Session, error)
}

// Profiles supplies the name and email used to prefill new sessions.
type Profiles interface {
	CurrentUser(ctx context.Context, userID id.UserID) (models.User, error)
}

type Handler struct {
	service  Service
	profiles Profiles
	logger   *slog.Logger
}

// New builds the handler. profiles may be nil, in which case sessions start
// empty.
func New(service Service, profiles Profiles, logger *slog.Logger) *Handler {
	return &Handler{service: service, profiles: profiles, logger: logger}
}

// Register mounts the session endpoints. All of them require an
// authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/identity/sessions", func(r chi.Router) {
		r.Post("/", h.HandleStart)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}/details", h.HandleDetails)
		r.Post("/{id}/back", h.HandleBack)
		r.Post("/{id}/document", h.HandleDocument)
		r.Post("/{id}/restart", h.HandleRestart)
	})
}

// HandleStart handles POST /identity/sessions.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	session, err := h.service.Start(ctx, caller, h.prefill(ctx, caller))
	if err != nil {
		h.fail(w, r, "session start failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(session))
}

// HandleGet handles GET /identity/sessions/{id}.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, sessionID, ok := h.target(w, r)
	if !ok {
		return
	}
	session, err := h.service.Get(r.Context(), caller, sessionID)
	if err != nil {
		h.fail(w, r, "session lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

// HandleDetails handles PUT /identity/sessions/{id}/details.
func (h *Handler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, sessionID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DetailsRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.SubmitDetails(ctx, caller, sessionID, req.Details())
	if err != nil {
		h.fail(w, r, "details rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

// HandleBack handles POST /identity/sessions/{id}/back.
func (h *Handler) HandleBack(w http.ResponseWriter, r *http.Request) {
	caller, sessionID, ok := h.target(w, r)
	if !ok {
		return
	}
	session, err := h.service.Back(r.Context(), caller, sessionID)
	if err != nil {
		h.fail(w, r, "back rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

// HandleDocument handles POST /identity/sessions/{id}/document. The response
// carries the completed session.
func (h *Handler) HandleDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, sessionID, ok := h.target(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DocumentRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	session, err := h.service.SubmitDocument(ctx, caller, sessionID, req.Upload())
	if err != nil {
		h.fail(w, r, "document rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

// HandleRestart handles POST /identity/sessions/{id}/restart.
func (h *Handler) HandleRestart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, sessionID, ok := h.target(w, r)
	if !ok {
		return
	}
	session, err := h.service.Restart(ctx, caller, sessionID, h.prefill(ctx, caller))
	if err != nil {
		h.fail(w, r, "restart rejected", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(session))
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	caller := requestcontext.UserID(r.Context())
	if caller.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return caller, true
}

func (h *Handler) target(w http.ResponseWriter, r *http.Request) (id.UserID, id.SessionID, bool) {
	caller, ok := h.caller(w, r)
	if !ok {
		return id.UserID{}, id.SessionID{}, false
	}
	sessionID, err := id.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.UserID{}, id.SessionID{}, false
	}
	return caller, sessionID, true
}

func (h *Handler) prefill(ctx context.Context, userID id.UserID) workflow.Details {
	if h.profiles == nil {
		return workflow.Details{}
	}
	user, err := h.profiles.CurrentUser(ctx, userID)
	if err != nil {
		h.logger.WarnContext(ctx, "could not load profile for prefill",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return workflow.Details{}
	}
	return workflow.Details{FullName: user.Name, Email: user.Email}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.logger.InfoContext(r.Context(), msg,
		"request_id", requestcontext.RequestID(r.Context()),
		"error", err,
	)
	httputil.WriteError(w, err)
}
