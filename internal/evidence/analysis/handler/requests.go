package handler

import (
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// AnalyzeRequest is the HTTP request body for POST /ai/analyze.
type AnalyzeRequest struct {
	DocumentID   string `json:"documentId"`
	DocumentType string `json:"documentType"`

	parsedDocumentID   id.DocumentID
	parsedDocumentType id.DocumentType
}

// Validate implements httputil.Validatable.
func (r *AnalyzeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	docID, err := id.ParseDocumentID(r.DocumentID)
	if err != nil {
		return err
	}
	docType, err := id.ParseDocumentType(r.DocumentType)
	if err != nil {
		return err
	}
	r.parsedDocumentID = docID
	r.parsedDocumentType = docType
	return nil
}

func (r *AnalyzeRequest) ParsedDocumentID() id.DocumentID     { return r.parsedDocumentID }
func (r *AnalyzeRequest) ParsedDocumentType() id.DocumentType { return r.parsedDocumentType }
