// Package verification is the public credential lookup: given a credential
// id it answers whether the credential is valid and how trusted it is,
// without exposing who it belongs to.
package verification

import (
	"context"
	"errors"
	"log/slog"

	"trustlessid/internal/audit"
	"trustlessid/internal/evidence/vc/models"
	"trustlessid/internal/verification/metrics"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/sentinel"
	"trustlessid/pkg/requestcontext"
)

// CredentialStore is the subset of the credential store the lookup needs.
type CredentialStore interface {
	RecordVerification(ctx context.Context, credentialID id.CredentialID) (models.Credential, error)
}

// ActivityRecorder receives the credential_verified activity for the owner.
type ActivityRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	credentials CredentialStore
	activity    ActivityRecorder
	logger      *slog.Logger
	metrics     *metrics.Metrics
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

func NewService(credentials CredentialStore, opts ...Option) *Service {
	s := &Service{credentials: credentials, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Lookup resolves a credential id to its public projection and counts the
// verification. For an id that was never issued it returns a projection with
// IsValid false alongside a not-found error.
func (s *Service) Lookup(ctx context.Context, rawID string) (PublicVerification, error) {
	credentialID, err := id.ParseCredentialID(rawID)
	if err != nil {
		return PublicVerification{}, err
	}
	now := requestcontext.Now(ctx)

	if !credentialID.Issuable() {
		s.metrics.IncrementLookup("not_found")
		return PublicVerification{CredentialID: credentialID, VerifiedAt: now},
			dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "Credential not found")
	}

	cred, err := s.credentials.RecordVerification(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			s.metrics.IncrementLookup("not_found")
			return PublicVerification{CredentialID: credentialID, VerifiedAt: now},
				dErrors.Wrap(err, dErrors.CodeNotFound, "Credential not found")
		}
		return PublicVerification{}, dErrors.Wrap(err, dErrors.CodeInternal, "credential lookup failed")
	}

	result := Project(cred, now)
	if result.IsValid {
		s.metrics.IncrementLookup("valid")
	} else {
		s.metrics.IncrementLookup("invalid")
	}

	if s.activity != nil {
		err := s.activity.Emit(ctx, audit.Event{
			UserID:      cred.UserID,
			Action:      audit.ActionCredentialVerified,
			Description: "Credential " + string(cred.ID) + " was verified by a third party",
		})
		if err != nil {
			s.logger.WarnContext(ctx, "failed to record verification activity",
				"credential_id", cred.ID,
				"error", err,
			)
		}
	}
	return result, nil
}
