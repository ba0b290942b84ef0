// Package dashboard aggregates a user's documents, credentials and activity
// into one summary.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"trustlessid/internal/audit"
	"trustlessid/internal/dashboard/metrics"
	"trustlessid/internal/document"
	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/requestcontext"
)

const (
	// RecentActivityLimit is how many activity entries a summary carries.
	RecentActivityLimit = 10

	readTimeout = 5 * time.Second
)

type DocumentLister interface {
	ListForUser(ctx context.Context, userID id.UserID) ([]document.Document, error)
}

type CredentialLister interface {
	ListForUser(ctx context.Context, userID id.UserID) ([]models.Credential, error)
}

type ActivityReader interface {
	Recent(ctx context.Context, userID id.UserID, limit int) ([]audit.Event, error)
}

// Stats are the counters shown at the top of the dashboard.
type Stats struct {
	TotalDocuments      int `json:"totalDocuments"`
	VerifiedDocuments   int `json:"verifiedDocuments"`
	ActiveCredentials   int `json:"activeCredentials"`
	RecentVerifications int `json:"recentVerifications"`
}

// Summary is the per-user dashboard payload.
type Summary struct {
	Stats       Stats               `json:"stats"`
	Documents   []document.Document `json:"documents"`
	Credentials []models.Credential `json:"credentials"`
	Activities  []audit.Event       `json:"activities"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

type Service struct {
	documents   DocumentLister
	credentials CredentialLister
	activity    ActivityReader
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(documents DocumentLister, credentials CredentialLister, activity ActivityReader, opts ...Option) *Service {
	s := &Service{
		documents:   documents,
		credentials: credentials,
		activity:    activity,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summary reads the three sources in parallel. Any failing source fails the
// whole summary.
func (s *Service) Summary(ctx context.Context, userID id.UserID) (Summary, error) {
	if userID.IsNil() {
		return Summary{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	readCtx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	g, readCtx := errgroup.WithContext(readCtx)

	var (
		docs       []document.Document
		creds      []models.Credential
		activities []audit.Event
	)
	g.Go(func() error {
		var err error
		docs, err = timed(s, "documents", func() ([]document.Document, error) {
			return s.documents.ListForUser(readCtx, userID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		creds, err = timed(s, "credentials", func() ([]models.Credential, error) {
			return s.credentials.ListForUser(readCtx, userID)
		})
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = timed(s, "activity", func() ([]audit.Event, error) {
			return s.activity.Recent(readCtx, userID, RecentActivityLimit)
		})
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.ErrorContext(ctx, "dashboard summary failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		if _, ok := dErrors.As(err); ok {
			return Summary{}, err
		}
		return Summary{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load dashboard")
	}

	summary := Summary{
		Stats:       computeStats(docs, creds, now),
		Documents:   nonNil(docs),
		Credentials: nonNil(creds),
		Activities:  nonNil(activities),
		GeneratedAt: now,
	}
	if len(summary.Activities) > RecentActivityLimit {
		summary.Activities = summary.Activities[:RecentActivityLimit]
	}
	s.metrics.ObserveSummaryLatency(time.Since(start))
	return summary, nil
}

func computeStats(docs []document.Document, creds []models.Credential, now time.Time) Stats {
	stats := Stats{TotalDocuments: len(docs)}
	for _, d := range docs {
		if d.Status == document.StatusVerified {
			stats.VerifiedDocuments++
		}
	}
	for _, c := range creds {
		if c.IsValid(now) {
			stats.ActiveCredentials++
		}
		stats.RecentVerifications += c.VerificationCount
	}
	return stats
}

func timed[T any](s *Service, source string, read func() ([]T, error)) ([]T, error) {
	start := time.Now()
	out, err := read()
	s.metrics.ObserveSourceLatency(source, time.Since(start))
	if err != nil {
		s.metrics.IncrementSourceFailure(source)
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	return out, nil
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
