// Package analysis is the document verification stub: it scores an uploaded
// document reference for authenticity and reports anomalies.
package analysis

import (
	"context"
	"time"

	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// Request identifies the document to analyze.
type Request struct {
	DocumentID   id.DocumentID
	DocumentType id.DocumentType
}

// Result is the outcome of one analysis. Produced once per submission and
// never mutated afterwards.
type Result struct {
	AuthenticityScore int       `json:"authenticityScore"`
	ConfidenceScore   int       `json:"confidenceScore"`
	Anomalies         []string  `json:"anomalies"`
	AnalyzedAt        time.Time `json:"analyzedAt"`
}

// DocumentAnalyzer produces a verification result for a document. One call
// per submission, no retries.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, req Request) (Result, error)
}

// Validate checks that the request names a document and a known type.
func (r Request) Validate() error {
	if r.DocumentID == "" {
		return dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	if !r.DocumentType.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unsupported document type: "+string(r.DocumentType))
	}
	return nil
}

// Check rejects results whose scores fall outside [0,100]. Used on data that
// crossed a process boundary.
func (r Result) Check() error {
	if r.AuthenticityScore < 0 || r.AuthenticityScore > 100 {
		return dErrors.New(dErrors.CodeInvariantViolation, "authenticity score out of range")
	}
	if r.ConfidenceScore < 0 || r.ConfidenceScore > 100 {
		return dErrors.New(dErrors.CodeInvariantViolation, "confidence score out of range")
	}
	return nil
}

// HasAnomalies reports whether the analyzer flagged anything.
func (r Result) HasAnomalies() bool {
	return len(r.Anomalies) > 0
}
