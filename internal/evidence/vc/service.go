package vc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustlessid/internal/audit"
	"trustlessid/internal/evidence/metrics"
	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/evidence/vc/models"
	"trustlessid/internal/evidence/vc/store"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/sentinel"
	"trustlessid/pkg/requestcontext"
)

// LocalProviderID names the in-process issuer in health reports.
const LocalProviderID = "local-credential-issuer"

// DefaultValidity is how long an issued credential stays valid.
const DefaultValidity = 365 * 24 * time.Hour

const maxMintAttempts = 3

// ActivityRecorder receives credential lifecycle activity.
type ActivityRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// IssueRequest asks for a new credential over a verified document.
type IssueRequest struct {
	UserID     id.UserID
	DocumentID id.DocumentID
	Type       models.CredentialType
}

func (r IssueRequest) Validate() error {
	if r.UserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if r.DocumentID == "" {
		return dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	if _, err := models.ParseCredentialType(string(r.Type)); err != nil {
		return err
	}
	return nil
}

// Service issues and manages simulated credentials.
type Service struct {
	store    store.Store
	activity ActivityRecorder
	logger   *slog.Logger
	metrics  *metrics.Metrics
	sim      *providers.Simulator
	validity time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithActivity(a ActivityRecorder) Option {
	return func(s *Service) { s.activity = a }
}

// WithSimulator applies the simulator's latency and failure injection to
// every Issue call.
func WithSimulator(sim *providers.Simulator) Option {
	return func(s *Service) { s.sim = sim }
}

// WithValidity overrides DefaultValidity.
func WithValidity(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.validity = d
		}
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		logger:   slog.Default(),
		validity: DefaultValidity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) ID() string                   { return LocalProviderID }
func (s *Service) Kind() providers.Kind         { return providers.KindCredentialIssuer }
func (s *Service) Health(context.Context) error { return nil }

// Issue mints a new credential. Every call mints a fresh id; there is no
// idempotency on (user, document).
func (s *Service) Issue(ctx context.Context, req IssueRequest) (models.Credential, error) {
	if req.Type == "" {
		req.Type = models.CredentialTypeIdentity
	}
	if err := req.Validate(); err != nil {
		return models.Credential{}, err
	}
	if s.sim != nil {
		if err := s.sim.Call(ctx, LocalProviderID); err != nil {
			return models.Credential{}, err
		}
	}

	now := requestcontext.Now(ctx).UTC()
	var cred models.Credential
	for attempt := 1; ; attempt++ {
		cred = models.Credential{
			ID:         id.NewCredentialID(),
			Status:     models.StatusActive,
			Type:       req.Type,
			UserID:     req.UserID,
			DocumentID: req.DocumentID,
			IssuedAt:   now,
			ExpiresAt:  now.Add(s.validity),
		}
		cred.Hash = ContentHash(cred)

		err := s.store.Save(ctx, cred)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) || attempt == maxMintAttempts {
			return models.Credential{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store credential")
		}
	}
	s.metrics.IncrementCredentialsIssued()

	s.logger.InfoContext(ctx, "credential issued",
		"request_id", requestcontext.RequestID(ctx),
		"credential_id", cred.ID,
		"user_id", cred.UserID,
		"type", cred.Type,
	)
	s.record(ctx, audit.Event{
		UserID:      cred.UserID,
		Action:      audit.ActionCredentialIssued,
		Description: "Issued " + string(cred.Type) + " credential " + string(cred.ID),
	})
	return cred, nil
}

// Get returns a credential by id.
func (s *Service) Get(ctx context.Context, credentialID id.CredentialID) (models.Credential, error) {
	c, err := s.store.FindByID(ctx, credentialID)
	if err != nil {
		return models.Credential{}, translateStoreError(err)
	}
	return c, nil
}

// ListForUser returns the user's credentials, newest first.
func (s *Service) ListForUser(ctx context.Context, userID id.UserID) ([]models.Credential, error) {
	creds, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	return creds, nil
}

// Revoke marks the caller's credential as revoked. Credentials owned by
// someone else are reported as not found.
func (s *Service) Revoke(ctx context.Context, userID id.UserID, credentialID id.CredentialID) (models.Credential, error) {
	cred, err := s.store.Update(ctx, credentialID, func(c *models.Credential) error {
		if c.UserID != userID {
			return sentinel.ErrNotFound
		}
		if c.Status == models.StatusRevoked {
			return sentinel.ErrInvalidState
		}
		c.Status = models.StatusRevoked
		return nil
	})
	if err != nil {
		return models.Credential{}, translateStoreError(err)
	}

	s.record(ctx, audit.Event{
		UserID:      userID,
		Action:      audit.ActionCredentialRevoked,
		Description: "Revoked credential " + string(credentialID),
	})
	return cred, nil
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record credential activity",
			"action", event.Action,
			"error", err,
		)
	}
}

func translateStoreError(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "Credential not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "credential is already revoked")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "credential store failure")
	}
}
