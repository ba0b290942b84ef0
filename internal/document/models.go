// Package document records the identity documents users attach to an
// enrollment session.
package document

import (
	"strings"
	"time"

	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// MaxFileSize bounds an uploaded document.
const MaxFileSize int64 = 10 << 20

const maxNameLength = 255

// Status is the review state of a document.
type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

// Document is a recorded document reference. The file content itself is
// never stored.
type Document struct {
	ID         id.DocumentID   `json:"id"`
	UserID     id.UserID       `json:"userId"`
	Name       string          `json:"name"`
	Type       id.DocumentType `json:"type"`
	FileSize   int64           `json:"fileSize"`
	Status     Status          `json:"status"`
	UploadedAt time.Time       `json:"uploadedAt"`
}

// Upload describes a document being attached. ID is minted on Register
// when empty.
type Upload struct {
	ID       id.DocumentID
	Name     string
	Type     id.DocumentType
	FileSize int64
}

// Validate checks the upload and trims its name.
func (u *Upload) Validate() error {
	u.Name = strings.TrimSpace(u.Name)
	if !u.Type.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "document type is required")
	}
	if u.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "document file name is required")
	}
	if len(u.Name) > maxNameLength {
		return dErrors.New(dErrors.CodeValidation, "document file name is too long")
	}
	if u.FileSize <= 0 {
		return dErrors.New(dErrors.CodeValidation, "document file is empty")
	}
	if u.FileSize > MaxFileSize {
		return dErrors.New(dErrors.CodeValidation, "document file exceeds 10MB")
	}
	return nil
}
