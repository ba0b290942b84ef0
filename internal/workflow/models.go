// Package workflow runs the identity issuance workflow: details, document,
// verification, fraud assessment and credential issuance, strictly forward.
package workflow

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	"trustlessid/internal/document"
	"trustlessid/internal/evidence/analysis"
	"trustlessid/internal/evidence/fraud"
	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// Stage is the position of a session in the workflow.
type Stage string

const (
	StageCollectingDetails Stage = "collecting_details"
	StageAwaitingDocument  Stage = "awaiting_document"
	StageVerifying         Stage = "verifying"
	StageAssessingFraud    Stage = "assessing_fraud"
	StageIssuing           Stage = "issuing"
	StageComplete          Stage = "complete"
)

// Busy reports whether a stub call is outstanding in this stage.
func (s Stage) Busy() bool {
	return s == StageVerifying || s == StageAssessingFraud || s == StageIssuing
}

// Step is the 1-based position shown in progress indicators.
func (s Stage) Step() int {
	switch s {
	case StageCollectingDetails:
		return 1
	case StageAwaitingDocument:
		return 2
	case StageVerifying:
		return 3
	case StageAssessingFraud:
		return 4
	default:
		return 5
	}
}

const dateLayout = "2006-01-02"

// Details are the personal attributes collected in the first step.
type Details struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Nationality string `json:"nationality,omitempty"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (d Details) Normalized() Details {
	return Details{
		FullName:    strings.TrimSpace(d.FullName),
		Email:       strings.TrimSpace(d.Email),
		DateOfBirth: strings.TrimSpace(d.DateOfBirth),
		Nationality: strings.TrimSpace(d.Nationality),
	}
}

// Validate checks the normalized details as of now.
func (d Details) Validate(now time.Time) error {
	if d.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if d.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if strings.Count(d.Email, "@") != 1 {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if addr, err := mail.ParseAddress(d.Email); err != nil || addr.Address != d.Email {
		return dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	if d.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, d.DateOfBirth)
		if err != nil {
			return dErrors.New(dErrors.CodeValidation, "date of birth must be YYYY-MM-DD")
		}
		if dob.After(now) {
			return dErrors.New(dErrors.CodeValidation, "date of birth cannot be in the future")
		}
	}
	return nil
}

// DocumentRef is the document attached in the second step. Only metadata
// is kept.
type DocumentRef struct {
	ID       id.DocumentID   `json:"id"`
	Type     id.DocumentType `json:"type"`
	FileName string          `json:"fileName"`
	FileSize int64           `json:"fileSize"`
}

// Validate applies the same rules as the document registry.
func (d DocumentRef) Validate() error {
	if d.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	upload := document.Upload{ID: d.ID, Name: d.FileName, Type: d.Type, FileSize: d.FileSize}
	return upload.Validate()
}

// Notice is a transient, non-blocking report of a stage that failed.
type Notice struct {
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// State is the immutable workflow value. Reduce is the only way to derive
// the next state; stage outputs are nil until their stage completes or when
// the stage failed.
type State struct {
	Stage        Stage              `json:"stage"`
	Details      Details            `json:"details"`
	Document     *DocumentRef       `json:"document,omitempty"`
	Verification *analysis.Result   `json:"verification,omitempty"`
	Fraud        *fraud.Assessment  `json:"fraud,omitempty"`
	Credential   *models.Credential `json:"credential,omitempty"`
	Notices      []Notice           `json:"notices"`
}

// NewState returns a fresh state with the given details prefilled.
func NewState(prefill Details) State {
	return State{Stage: StageCollectingDetails, Details: prefill.Normalized(), Notices: []Notice{}}
}

func (s State) withNotice(n Notice) State {
	s.Notices = append(slices.Clone(s.Notices), n)
	return s
}

// Session is a persisted workflow run owned by one user.
type Session struct {
	ID        id.SessionID `json:"id"`
	UserID    id.UserID    `json:"userId"`
	State     State        `json:"state"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
