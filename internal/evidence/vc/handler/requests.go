package handler

import (
	"strings"

	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// IssueCredentialRequest is the HTTP request body for POST /credentials.
type IssueCredentialRequest struct {
	UserID     string `json:"userId"`
	DocumentID string `json:"documentId"`
	Type       string `json:"type"`

	parsedUserID     id.UserID
	parsedDocumentID id.DocumentID
	parsedType       models.CredentialType
}

// Validate implements httputil.Validatable. An empty userId means the caller.
func (r *IssueCredentialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if u := strings.TrimSpace(r.UserID); u != "" {
		userID, err := id.ParseUserID(u)
		if err != nil {
			return err
		}
		r.parsedUserID = userID
	}
	docID, err := id.ParseDocumentID(r.DocumentID)
	if err != nil {
		return err
	}
	r.parsedDocumentID = docID

	credType, err := models.ParseCredentialType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	r.parsedType = credType
	return nil
}

func (r *IssueCredentialRequest) ParsedUserID() id.UserID           { return r.parsedUserID }
func (r *IssueCredentialRequest) ParsedDocumentID() id.DocumentID   { return r.parsedDocumentID }
func (r *IssueCredentialRequest) ParsedType() models.CredentialType { return r.parsedType }
