package handler

import (
	"strings"
	"time"

	"trustlessid/internal/evidence/analysis"
	"trustlessid/internal/evidence/fraud"
	"trustlessid/internal/evidence/vc/models"
	"trustlessid/internal/workflow"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// DetailsRequest is the body of PUT /identity/sessions/{id}/details. Field
// rules are enforced by the workflow so the step stays blocked on failure.
type DetailsRequest struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth"`
	Nationality string `json:"nationality"`
}

func (r *DetailsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}

func (r *DetailsRequest) Details() workflow.Details {
	return workflow.Details{
		FullName:    r.FullName,
		Email:       r.Email,
		DateOfBirth: r.DateOfBirth,
		Nationality: r.Nationality,
	}
}

// DocumentRequest is the body of POST /identity/sessions/{id}/document.
// Only metadata of the chosen file is sent.
type DocumentRequest struct {
	DocumentType string `json:"documentType"`
	FileName     string `json:"fileName"`
	FileSize     int64  `json:"fileSize"`

	parsedType id.DocumentType
}

func (r *DocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	docType, err := id.ParseDocumentType(strings.TrimSpace(r.DocumentType))
	if err != nil {
		return err
	}
	r.parsedType = docType
	return nil
}

func (r *DocumentRequest) Upload() workflow.DocumentUpload {
	return workflow.DocumentUpload{Type: r.parsedType, FileName: r.FileName, FileSize: r.FileSize}
}

// FraudView adds the presentational severity to an assessment.
type FraudView struct {
	fraud.Assessment
	Severity fraud.Severity `json:"severity"`
}

// SessionResponse is the wire view of a session.
type SessionResponse struct {
	ID           id.SessionID          `json:"id"`
	Stage        workflow.Stage        `json:"stage"`
	Step         int                   `json:"step"`
	Details      workflow.Details      `json:"details"`
	Document     *workflow.DocumentRef `json:"document,omitempty"`
	Verification *analysis.Result      `json:"verification,omitempty"`
	Fraud        *FraudView            `json:"fraud,omitempty"`
	Credential   *models.Credential    `json:"credential,omitempty"`
	Notices      []workflow.Notice     `json:"notices"`
	CreatedAt    time.Time             `json:"createdAt"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

func toResponse(s workflow.Session) SessionResponse {
	resp := SessionResponse{
		ID:           s.ID,
		Stage:        s.State.Stage,
		Step:         s.State.Stage.Step(),
		Details:      s.State.Details,
		Document:     s.State.Document,
		Verification: s.State.Verification,
		Credential:   s.State.Credential,
		Notices:      s.State.Notices,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if resp.Notices == nil {
		resp.Notices = []workflow.Notice{}
	}
	if a := s.State.Fraud; a != nil {
		resp.Fraud = &FraudView{Assessment: *a, Severity: a.RiskLevel.Severity()}
	}
	return resp
}
