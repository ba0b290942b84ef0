package stubclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"trustlessid/internal/evidence/analysis"
	analysishandler "trustlessid/internal/evidence/analysis/handler"
	"trustlessid/internal/evidence/fraud"
	fraudhandler "trustlessid/internal/evidence/fraud/handler"
	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/evidence/vc"
	vchandler "trustlessid/internal/evidence/vc/handler"
	"trustlessid/internal/evidence/vc/models"
	"trustlessid/internal/evidence/vc/store"
	"trustlessid/internal/platform/logger"
	"trustlessid/internal/verification"
	verificationhandler "trustlessid/internal/verification/handler"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	"trustlessid/pkg/platform/httputil"
	"trustlessid/pkg/requestcontext"
)

const testToken = "token-for-tests"

type ClientSuite struct {
	suite.Suite
	user   id.UserID
	server *httptest.Server
	client *Client
	seen   chan string
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.user = id.NewUserID()
	s.seen = make(chan string, 16)
	log := logger.Discard()

	credentials := store.NewInMemoryStore()
	issuer := vc.NewService(credentials, vc.WithLogger(log))

	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, healthReport{Status: "ok"})
	})
	verificationhandler.New(verification.NewService(credentials), log).Register(r)
	r.Group(func(r chi.Router) {
		r.Use(s.bearerOnly)
		analysishandler.New(analysis.Fixed{Result: analysis.Result{AuthenticityScore: 94, ConfidenceScore: 88}}, log, nil).Register(r)
		fraudhandler.New(fraud.Fixed{Score: 12}, log, nil).Register(r)
		vchandler.New(issuer, log, nil).Register(r)
	})
	r.Get("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":`))
	})

	s.server = httptest.NewServer(r)
	s.T().Cleanup(s.server.Close)
	s.client = New(s.server.URL, WithLogger(log))
}

func (s *ClientSuite) bearerOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		s.seen <- auth
		if auth != "Bearer "+testToken {
			httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "Missing or invalid token"))
			return
		}
		next.ServeHTTP(w, r.WithContext(requestcontext.WithUserID(r.Context(), s.user)))
	})
}

func (s *ClientSuite) authed() context.Context {
	return requestcontext.WithAccessToken(context.Background(), testToken)
}

func (s *ClientSuite) TestAnalyzeForwardsCallerToken() {
	res, err := s.client.Analyze(s.authed(), analysis.Request{DocumentID: "doc_5e1a9c3b7d20", DocumentType: id.DocumentTypePassport})
	s.Require().NoError(err)
	s.Equal(94, res.AuthenticityScore)
	s.Equal(88, res.ConfidenceScore)
	s.Empty(res.Anomalies)
	s.Equal("Bearer "+testToken, <-s.seen)
}

func (s *ClientSuite) TestAssessCarriesVerification() {
	verified := analysis.Result{AuthenticityScore: 90, ConfidenceScore: 90, Anomalies: []string{}}
	res, err := s.client.Assess(s.authed(), fraud.Request{DocumentID: "doc_5e1a9c3b7d20", UserID: s.user, Verification: &verified})
	s.Require().NoError(err)
	s.Equal(12, res.RiskScore)
	s.Equal(fraud.RiskLow, res.RiskLevel)
}

func (s *ClientSuite) TestIssueThenVerify() {
	cred, err := s.client.Issue(s.authed(), vc.IssueRequest{UserID: s.user, DocumentID: "doc_5e1a9c3b7d20", Type: models.CredentialTypeIdentity})
	s.Require().NoError(err)
	s.Regexp(`^cred_[0-9a-f]{12}$`, cred.ID.String())
	s.Equal(models.StatusActive, cred.Status)

	view, err := s.client.Verify(context.Background(), cred.ID.String())
	s.Require().NoError(err)
	s.True(view.IsValid)
	s.Equal(cred.ID, view.CredentialID)
}

func (s *ClientSuite) TestFallbackTokenIsUsedWithoutCaller() {
	c := New(s.server.URL, WithToken(testToken))
	_, err := c.Analyze(context.Background(), analysis.Request{DocumentID: "doc_5e1a9c3b7d20", DocumentType: id.DocumentTypePassport})
	s.NoError(err)
}

func (s *ClientSuite) TestErrorMapping() {
	s.Run("missing token is an authentication failure", func() {
		_, err := s.client.Analyze(context.Background(), analysis.Request{DocumentID: "doc_5e1a9c3b7d20", DocumentType: id.DocumentTypePassport})
		s.Require().Error(err)
		s.Equal(providers.ErrorAuthentication, providers.GetCategory(err))
		s.Equal("Missing or invalid token", providers.Message(err, ""))
	})

	s.Run("not found keeps the server message", func() {
		_, err := s.client.Verify(context.Background(), "nonexistent_id")
		s.Require().Error(err)
		s.Equal(providers.ErrorRejected, providers.GetCategory(err))
		s.Equal("Credential not found", providers.Message(err, ""))
	})

	s.Run("malformed body is bad data", func() {
		_, err := call[healthReport](context.Background(), s.client, http.MethodGet, "/broken", nil)
		s.Require().Error(err)
		s.Equal(providers.ErrorBadData, providers.GetCategory(err))
	})

	s.Run("unreachable server is an outage", func() {
		c := New("http://127.0.0.1:1")
		err := c.Health(context.Background())
		s.Require().Error(err)
		s.Equal(providers.ErrorProviderOutage, providers.GetCategory(err))
	})

	s.Run("slow server times out", func() {
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer slow.Close()
		c := New(slow.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
		err := c.Health(context.Background())
		s.Require().Error(err)
		s.Equal(providers.ErrorTimeout, providers.GetCategory(err))
	})
}

func (s *ClientSuite) TestProvidersReportHealth() {
	registry := providers.NewRegistry()
	for _, p := range s.client.Providers() {
		s.Require().NoError(registry.Register(p))
	}
	statuses := registry.Check(context.Background())
	s.Len(statuses, 3)
	for _, st := range statuses {
		s.True(st.Healthy, st.ID)
	}
}
