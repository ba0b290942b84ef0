package handler

import (
	"strings"

	"trustlessid/internal/evidence/analysis"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// FraudDetectionRequest is the HTTP request body for POST /ai/fraud-detection.
// VerificationData is null when the analysis stage failed.
type FraudDetectionRequest struct {
	DocumentID       string           `json:"documentId"`
	UserID           string           `json:"userId"`
	VerificationData *analysis.Result `json:"verificationData"`

	parsedDocumentID id.DocumentID
	parsedUserID     id.UserID
}

// Validate implements httputil.Validatable. An empty userId is resolved to
// the caller by the handler.
func (r *FraudDetectionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	docID, err := id.ParseDocumentID(r.DocumentID)
	if err != nil {
		return err
	}
	r.parsedDocumentID = docID

	if strings.TrimSpace(r.UserID) != "" {
		userID, err := id.ParseUserID(strings.TrimSpace(r.UserID))
		if err != nil {
			return err
		}
		r.parsedUserID = userID
	}

	if r.VerificationData != nil {
		if err := r.VerificationData.Check(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid verificationData")
		}
	}
	return nil
}

func (r *FraudDetectionRequest) ParsedDocumentID() id.DocumentID { return r.parsedDocumentID }
func (r *FraudDetectionRequest) ParsedUserID() id.UserID         { return r.parsedUserID }
