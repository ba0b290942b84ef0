package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"trustlessid/internal/audit"
	userstore "trustlessid/internal/auth/store/user"
	"trustlessid/internal/dashboard/metrics"
	"trustlessid/internal/document"
	"trustlessid/internal/evidence/vc"
	"trustlessid/internal/evidence/vc/models"
	vcstore "trustlessid/internal/evidence/vc/store"
	"trustlessid/internal/fixtures"
	"trustlessid/internal/platform/logger"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/requestcontext"
)

type failingCredentials struct{}

func (failingCredentials) ListForUser(context.Context, id.UserID) ([]models.Credential, error) {
	return nil, errors.New("store offline")
}

type blockingActivity struct{}

func (blockingActivity) Recent(ctx context.Context, _ id.UserID, _ int) ([]audit.Event, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type SummarySuite struct {
	suite.Suite
	ctx         context.Context
	now         time.Time
	documents   *document.Service
	credentials *vc.Service
	activity    *audit.Publisher
	metrics     *metrics.Metrics
	service     *Service
}

func TestSummarySuite(t *testing.T) {
	suite.Run(t, new(SummarySuite))
}

func (s *SummarySuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	docStore := document.NewInMemoryStore()
	credStore := vcstore.NewInMemoryStore()
	activityStore := audit.NewInMemoryStore()
	s.Require().NoError(fixtures.Seed(s.ctx, fixtures.Stores{
		Users:       userstore.New(),
		Credentials: credStore,
		Documents:   docStore,
		Activity:    activityStore,
	}, s.now))

	log := logger.Discard()
	s.documents = document.NewService(docStore, nil, log)
	s.credentials = vc.NewService(credStore, vc.WithLogger(log))
	s.activity = audit.NewPublisher(activityStore, audit.WithLogger(log))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = NewService(s.documents, s.credentials, s.activity, WithLogger(log), WithMetrics(s.metrics))
}

func (s *SummarySuite) TestSeededUser() {
	summary, err := s.service.Summary(s.ctx, fixtures.DemoUserID)
	s.Require().NoError(err)

	s.Equal(Stats{
		TotalDocuments:      3,
		VerifiedDocuments:   2,
		ActiveCredentials:   2,
		RecentVerifications: 20,
	}, summary.Stats)
	s.Len(summary.Documents, 3)
	s.Len(summary.Credentials, 3)
	s.Len(summary.Activities, RecentActivityLimit)
	s.Equal(audit.ActionLogin, summary.Activities[0].Action)
	s.Equal(s.now, summary.GeneratedAt)

	s.Equal(1, testutil.CollectAndCount(s.metrics.SummaryLatency))
	s.Equal(3, testutil.CollectAndCount(s.metrics.SourceLatency))
}

func (s *SummarySuite) TestExpiredCredentialIsNotActive() {
	later := requestcontext.WithTime(context.Background(), s.now.Add(400*24*time.Hour))
	summary, err := s.service.Summary(later, fixtures.DemoUserID)
	s.Require().NoError(err)
	s.Equal(0, summary.Stats.ActiveCredentials)
	s.Equal(20, summary.Stats.RecentVerifications)
}

func (s *SummarySuite) TestNewUserGetsEmptyLists() {
	summary, err := s.service.Summary(s.ctx, id.NewUserID())
	s.Require().NoError(err)
	s.Equal(Stats{}, summary.Stats)
	s.NotNil(summary.Documents)
	s.NotNil(summary.Credentials)
	s.NotNil(summary.Activities)
	s.Empty(summary.Activities)
}

func (s *SummarySuite) TestRequiresUser() {
	_, err := s.service.Summary(s.ctx, id.UserID{})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *SummarySuite) TestFailingSourceFailsSummary() {
	svc := NewService(s.documents, failingCredentials{}, blockingActivity{}, WithLogger(logger.Discard()), WithMetrics(s.metrics))

	_, err := svc.Summary(s.ctx, fixtures.DemoUserID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	s.InDelta(1, testutil.ToFloat64(s.metrics.SourceFailures.WithLabelValues("credentials")), 0)
}
