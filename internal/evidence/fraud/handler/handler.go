package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/evidence/fraud"
	"trustlessid/internal/evidence/metrics"
	"trustlessid/internal/evidence/providers"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

const stubName = "fraud_detection"

// Handler exposes the fraud assessor over HTTP.
type Handler struct {
	assessor fraud.FraudAssessor
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(assessor fraud.FraudAssessor, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{assessor: assessor, logger: logger, metrics: m}
}

// Register mounts the fraud endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ai/fraud-detection", h.HandleFraudDetection)
}

// HandleFraudDetection handles POST /ai/fraud-detection.
func (h *Handler) HandleFraudDetection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[FraudDetectionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	userID := req.ParsedUserID()
	if userID.IsNil() {
		userID = requestcontext.UserID(ctx)
	}
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "userId is required"))
		return
	}

	start := time.Now()
	res, err := h.assessor.Assess(ctx, fraud.Request{
		DocumentID:   req.ParsedDocumentID(),
		UserID:       userID,
		Verification: req.VerificationData,
	})
	h.metrics.ObserveCall(stubName, err, time.Since(start))
	if err != nil {
		h.logger.WarnContext(ctx, "fraud assessment failed",
			"request_id", requestID,
			"document_id", req.DocumentID,
			"error", err,
		)
		httputil.WriteError(w, providers.ToDomainError(err, "Fraud detection failed"))
		return
	}

	h.logger.InfoContext(ctx, "fraud assessed",
		"request_id", requestID,
		"document_id", req.DocumentID,
		"risk_score", res.RiskScore,
		"risk_level", res.RiskLevel,
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
