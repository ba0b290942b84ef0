package stubclient

import (
	"context"
	"net/http"

	"trustlessid/internal/evidence/analysis"
	analysishandler "trustlessid/internal/evidence/analysis/handler"
	"trustlessid/internal/evidence/fraud"
	fraudhandler "trustlessid/internal/evidence/fraud/handler"
	"trustlessid/internal/evidence/providers"
	"trustlessid/internal/evidence/vc"
	vchandler "trustlessid/internal/evidence/vc/handler"
	"trustlessid/internal/evidence/vc/models"
)

// Analyze calls POST /ai/analyze.
func (c *Client) Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error) {
	return call[analysis.Result](ctx, c, http.MethodPost, "/ai/analyze", analysishandler.AnalyzeRequest{
		DocumentID:   req.DocumentID.String(),
		DocumentType: req.DocumentType.String(),
	})
}

// Assess calls POST /ai/fraud-detection.
func (c *Client) Assess(ctx context.Context, req fraud.Request) (fraud.Assessment, error) {
	body := fraudhandler.FraudDetectionRequest{
		DocumentID:       req.DocumentID.String(),
		VerificationData: req.Verification,
	}
	if !req.UserID.IsNil() {
		body.UserID = req.UserID.String()
	}
	return call[fraud.Assessment](ctx, c, http.MethodPost, "/ai/fraud-detection", body)
}

// Issue calls POST /credentials.
func (c *Client) Issue(ctx context.Context, req vc.IssueRequest) (models.Credential, error) {
	body := vchandler.IssueCredentialRequest{
		DocumentID: req.DocumentID.String(),
		Type:       string(req.Type),
	}
	if !req.UserID.IsNil() {
		body.UserID = req.UserID.String()
	}
	return call[models.Credential](ctx, c, http.MethodPost, "/credentials", body)
}

// Health reports whether the server answers GET /health.
func (c *Client) Health(ctx context.Context) error {
	_, err := call[healthReport](ctx, c, http.MethodGet, "/health", nil)
	return err
}

type healthReport struct {
	Status string `json:"status"`
}

// Providers exposes one health row per remote capability.
func (c *Client) Providers() []providers.Provider {
	return []providers.Provider{
		remoteProvider{client: c, id: ProviderID + "_analyzer", kind: providers.KindDocumentAnalysis},
		remoteProvider{client: c, id: ProviderID + "_fraud", kind: providers.KindFraudDetection},
		remoteProvider{client: c, id: ProviderID + "_issuer", kind: providers.KindCredentialIssuer},
	}
}

type remoteProvider struct {
	client *Client
	id     string
	kind   providers.Kind
}

func (p remoteProvider) ID() string                       { return p.id }
func (p remoteProvider) Kind() providers.Kind             { return p.kind }
func (p remoteProvider) Health(ctx context.Context) error { return p.client.Health(ctx) }
