package workflow

import (
	"context"

	"trustlessid/internal/audit"
	"trustlessid/internal/document"
	"trustlessid/internal/evidence/analysis"
	"trustlessid/internal/evidence/fraud"
	"trustlessid/internal/evidence/vc"
	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
)

// DocumentAnalyzer is the verification stage.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (analysis.Result, error)
}

// FraudAssessor is the fraud stage.
type FraudAssessor interface {
	Assess(ctx context.Context, req fraud.Request) (fraud.Assessment, error)
}

// CredentialIssuer is the issuance stage. Every call mints a new credential.
type CredentialIssuer interface {
	Issue(ctx context.Context, req vc.IssueRequest) (models.Credential, error)
}

// DocumentRegistry records submitted documents and their review outcome.
type DocumentRegistry interface {
	Register(ctx context.Context, userID id.UserID, upload document.Upload) (document.Document, error)
	Resolve(ctx context.Context, documentID id.DocumentID, status document.Status) (document.Document, error)
}

// ActivityRecorder receives verification and fraud_check activity.
type ActivityRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}
