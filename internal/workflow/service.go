package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"trustlessid/internal/audit"
	"trustlessid/internal/document"
	"trustlessid/internal/evidence/analysis"
	"trustlessid/internal/evidence/fraud"
	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/evidence/vc"
	"trustlessid/internal/evidence/vc/models"
	"trustlessid/internal/workflow/metrics"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/sentinel"
	"trustlessid/pkg/requestcontext"
)

const tracerName = "trustlessid/internal/workflow"

// AuthenticityThreshold is the lowest authenticity score for which a
// document is marked verified.
const AuthenticityThreshold = 70

var errSessionBusy = errors.New("session busy")

// DocumentUpload is the document metadata submitted in the second step.
type DocumentUpload struct {
	Type     id.DocumentType
	FileName string
	FileSize int64
}

// Service runs sessions through the workflow. Every state change goes
// through Reduce inside an atomic store update.
type Service struct {
	sessions  SessionStore
	analyzer  DocumentAnalyzer
	assessor  FraudAssessor
	issuer    CredentialIssuer
	documents DocumentRegistry
	activity  ActivityRecorder
	logger    *slog.Logger
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithDocuments(r DocumentRegistry) Option {
	return func(s *Service) { s.documents = r }
}

func WithActivity(a ActivityRecorder) Option {
	return func(s *Service) { s.activity = a }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Service) { s.tracer = tp.Tracer(tracerName) }
}

func NewService(sessions SessionStore, analyzer DocumentAnalyzer, assessor FraudAssessor, issuer CredentialIssuer, opts ...Option) *Service {
	s := &Service{
		sessions: sessions,
		analyzer: analyzer,
		assessor: assessor,
		issuer:   issuer,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a session for userID with name and email prefilled.
func (s *Service) Start(ctx context.Context, userID id.UserID, prefill Details) (Session, error) {
	if userID.IsNil() {
		return Session{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	now := requestcontext.Now(ctx)
	session := Session{
		ID:        id.NewSessionID(),
		UserID:    userID,
		State:     NewState(prefill),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return Session{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to start session")
	}
	s.metrics.IncSessionsStarted()
	s.logger.InfoContext(ctx, "workflow session started",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", session.ID,
		"user_id", userID,
	)
	return session, nil
}

// Get returns a session owned by userID. Sessions of other users are
// reported as not found.
func (s *Service) Get(ctx context.Context, userID id.UserID, sessionID id.SessionID) (Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err == nil && session.UserID != userID {
		err = sentinel.ErrNotFound
	}
	if err != nil {
		return Session{}, s.translate(err)
	}
	return session, nil
}

// SubmitDetails validates the personal details and moves to the document
// step.
func (s *Service) SubmitDetails(ctx context.Context, userID id.UserID, sessionID id.SessionID, details Details) (Session, error) {
	return s.apply(ctx, userID, sessionID, DetailsSubmitted{Details: details, At: requestcontext.Now(ctx)})
}

// Back returns from the document step to the details step.
func (s *Service) Back(ctx context.Context, userID id.UserID, sessionID id.SessionID) (Session, error) {
	return s.apply(ctx, userID, sessionID, BackRequested{})
}

// Restart discards an idle session's progress.
func (s *Service) Restart(ctx context.Context, userID id.UserID, sessionID id.SessionID, prefill Details) (Session, error) {
	return s.apply(ctx, userID, sessionID, Restarted{Prefill: prefill})
}

// SubmitDocument attaches the document and runs verification, fraud
// assessment and issuance in order. Stage failures are recorded as notices
// and never stop the run, so a valid submission always ends in Complete.
func (s *Service) SubmitDocument(ctx context.Context, userID id.UserID, sessionID id.SessionID, upload DocumentUpload) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.submit_document",
		trace.WithAttributes(attribute.String("session_id", sessionID.String())),
	)
	defer span.End()

	ref := DocumentRef{
		ID:       id.NewDocumentID(),
		Type:     upload.Type,
		FileName: upload.FileName,
		FileSize: upload.FileSize,
	}
	session, err := s.apply(ctx, userID, sessionID, DocumentSubmitted{Document: ref})
	if err != nil {
		span.SetStatus(codes.Error, "document rejected")
		return Session{}, err
	}
	s.registerDocument(ctx, userID, ref)

	session, err = s.run(ctx, session)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "workflow run failed")
		return Session{}, err
	}
	span.SetAttributes(attribute.Bool("credential_issued", session.State.Credential != nil))
	return session, nil
}

func (s *Service) run(ctx context.Context, session Session) (Session, error) {
	var err error
	if session, err = s.verify(ctx, session); err != nil {
		return Session{}, err
	}
	if session, err = s.assess(ctx, session); err != nil {
		return Session{}, err
	}
	if session, err = s.issue(ctx, session); err != nil {
		return Session{}, err
	}

	issued := session.State.Credential != nil
	s.metrics.IncCompleted(issued)
	s.logger.InfoContext(ctx, "workflow session complete",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", session.ID,
		"credential_issued", issued,
		"notices", len(session.State.Notices),
	)
	return session, nil
}

func (s *Service) verify(ctx context.Context, session Session) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.verify")
	defer span.End()

	doc := *session.State.Document
	result, err := s.analyzer.Analyze(ctx, analysis.Request{DocumentID: doc.ID, DocumentType: doc.Type})
	if err == nil {
		err = result.Check()
	}
	s.observeStage(ctx, span, session, StageVerifying, err)

	next, applyErr := s.advance(ctx, session, VerificationFinished{Result: result, Err: err, At: requestcontext.Now(ctx)})
	if applyErr != nil || err != nil {
		return next, applyErr
	}

	span.SetAttributes(
		attribute.Int("authenticity_score", result.AuthenticityScore),
		attribute.Int("confidence_score", result.ConfidenceScore),
	)
	status, verdict := document.StatusVerified, "verified"
	if result.AuthenticityScore < AuthenticityThreshold {
		status, verdict = document.StatusRejected, "flagged"
	}
	description := fmt.Sprintf("%s %s with %d%% authenticity", doc.Type.Label(), verdict, result.AuthenticityScore)
	if result.HasAnomalies() {
		span.SetAttributes(attribute.StringSlice("anomalies", result.Anomalies))
		description += " (" + strings.Join(result.Anomalies, "; ") + ")"
	}
	s.resolveDocument(ctx, doc.ID, status)
	s.record(ctx, audit.Event{
		UserID:      session.UserID,
		Action:      audit.ActionVerification,
		Description: description,
	})
	return next, nil
}

func (s *Service) assess(ctx context.Context, session Session) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.assess_fraud")
	defer span.End()

	assessment, err := s.assessor.Assess(ctx, fraud.Request{
		DocumentID:   session.State.Document.ID,
		UserID:       session.UserID,
		Verification: session.State.Verification,
	})
	if err == nil {
		err = assessment.Check()
	}
	s.observeStage(ctx, span, session, StageAssessingFraud, err)

	next, applyErr := s.advance(ctx, session, FraudAssessed{Assessment: assessment, Err: err, At: requestcontext.Now(ctx)})
	if applyErr != nil || err != nil {
		return next, applyErr
	}

	span.SetAttributes(
		attribute.Int("risk_score", assessment.RiskScore),
		attribute.String("risk_level", string(assessment.RiskLevel)),
	)
	s.record(ctx, audit.Event{
		UserID:      session.UserID,
		Action:      audit.ActionFraudCheck,
		Description: fmt.Sprintf("Fraud check: %s risk (score %d)", assessment.RiskLevel, assessment.RiskScore),
	})
	return next, nil
}

func (s *Service) issue(ctx context.Context, session Session) (Session, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.issue_credential")
	defer span.End()

	cred, err := s.issuer.Issue(ctx, vc.IssueRequest{
		UserID:     session.UserID,
		DocumentID: session.State.Document.ID,
		Type:       models.CredentialTypeIdentity,
	})
	s.observeStage(ctx, span, session, StageIssuing, err)
	if err == nil {
		span.SetAttributes(attribute.String("credential_id", string(cred.ID)))
	}
	return s.advance(ctx, session, CredentialRecorded{Credential: cred, Err: err, At: requestcontext.Now(ctx)})
}

// advance applies a stage result. The update ignores cancellation of ctx so
// a session never stays in a busy stage.
func (s *Service) advance(ctx context.Context, session Session, event Event) (Session, error) {
	return s.apply(context.WithoutCancel(ctx), session.UserID, session.ID, event)
}

func (s *Service) apply(ctx context.Context, userID id.UserID, sessionID id.SessionID, event Event) (Session, error) {
	session, err := s.sessions.Update(ctx, sessionID, func(sess *Session) error {
		if sess.UserID != userID {
			return sentinel.ErrNotFound
		}
		next, err := Reduce(sess.State, event)
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) && sess.State.Stage.Busy() {
				return fmt.Errorf("%w: %w", errSessionBusy, err)
			}
			return err
		}
		sess.State = next
		sess.UpdatedAt = requestcontext.Now(ctx)
		return nil
	})
	if err != nil {
		s.logger.InfoContext(ctx, "workflow event rejected",
			"request_id", requestcontext.RequestID(ctx),
			"session_id", sessionID,
			"event", event.eventName(),
			"error", err,
		)
		return Session{}, s.translate(err)
	}
	s.metrics.IncTransition(string(session.State.Stage))
	return session, nil
}

func (s *Service) translate(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "session not found")
	case errors.Is(err, errSessionBusy):
		s.metrics.IncRejection("busy")
		return dErrors.Wrap(err, dErrors.CodeConflict, "session is busy")
	case errors.Is(err, ErrInvalidTransition):
		s.metrics.IncRejection("invalid_transition")
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "action not allowed at the current step")
	}
	if _, ok := dErrors.As(err); ok {
		s.metrics.IncRejection("validation")
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update session")
}

func (s *Service) observeStage(ctx context.Context, span trace.Span, session Session, stage Stage, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(stage)+" failed")
	s.metrics.IncStageFailure(string(stage))
	s.logger.WarnContext(ctx, "workflow stage failed, continuing",
		"request_id", requestcontext.RequestID(ctx),
		"session_id", session.ID,
		"stage", stage,
		"category", providers.GetCategory(err),
		"error", err,
	)
}

func (s *Service) registerDocument(ctx context.Context, userID id.UserID, ref DocumentRef) {
	if s.documents == nil {
		return
	}
	_, err := s.documents.Register(ctx, userID, document.Upload{
		ID:       ref.ID,
		Name:     ref.FileName,
		Type:     ref.Type,
		FileSize: ref.FileSize,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to record document",
			"document_id", ref.ID,
			"error", err,
		)
	}
}

func (s *Service) resolveDocument(ctx context.Context, documentID id.DocumentID, status document.Status) {
	if s.documents == nil {
		return
	}
	if _, err := s.documents.Resolve(ctx, documentID, status); err != nil {
		s.logger.WarnContext(ctx, "failed to resolve document",
			"document_id", documentID,
			"status", status,
			"error", err,
		)
	}
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record workflow activity",
			"action", event.Action,
			"error", err,
		)
	}
}
