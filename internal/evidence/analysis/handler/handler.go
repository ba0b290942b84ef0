package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustlessid/internal/evidence/analysis"
	"trustlessid/internal/evidence/metrics"
	"trustlessid/internal/evidence/providers"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

const stubName = "analyze"

// Handler exposes the document analyzer over HTTP.
type Handler struct {
	analyzer analysis.DocumentAnalyzer
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func New(analyzer analysis.DocumentAnalyzer, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{analyzer: analyzer, logger: logger, metrics: m}
}

// Register mounts the analyzer endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ai/analyze", h.HandleAnalyze)
}

// HandleAnalyze handles POST /ai/analyze.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[AnalyzeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	start := time.Now()
	res, err := h.analyzer.Analyze(ctx, analysis.Request{
		DocumentID:   req.ParsedDocumentID(),
		DocumentType: req.ParsedDocumentType(),
	})
	h.metrics.ObserveCall(stubName, err, time.Since(start))
	if err != nil {
		h.logger.WarnContext(ctx, "document analysis failed",
			"request_id", requestID,
			"document_id", req.DocumentID,
			"error", err,
		)
		httputil.WriteError(w, providers.ToDomainError(err, "Verification failed"))
		return
	}

	h.logger.InfoContext(ctx, "document analyzed",
		"request_id", requestID,
		"document_id", req.DocumentID,
		"authenticity", res.AuthenticityScore,
		"anomalies", len(res.Anomalies),
	)
	httputil.WriteJSON(w, http.StatusOK, res)
}
