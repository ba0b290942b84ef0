package domain

import dErrors "trustlessid/pkg/domain-errors"

// DocumentType is the kind of identity document attached to a submission.
// Invariant: the value is one of the supported document types.
//
// Construct via ParseDocumentType at trust boundaries; direct casting
// bypasses validation.
type DocumentType string

const (
	DocumentTypePassport       DocumentType = "passport"
	DocumentTypeDriversLicense DocumentType = "drivers_license"
	DocumentTypeNationalID     DocumentType = "national_id"
)

var validDocumentTypes = map[DocumentType]struct{}{
	DocumentTypePassport:       {},
	DocumentTypeDriversLicense: {},
	DocumentTypeNationalID:     {},
}

// ParseDocumentType validates a document type string.
func ParseDocumentType(s string) (DocumentType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "document type is required")
	}
	t := DocumentType(s)
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported document type: "+s)
	}
	return t, nil
}

func (t DocumentType) IsValid() bool {
	_, ok := validDocumentTypes[t]
	return ok
}

func (t DocumentType) String() string {
	return string(t)
}

// Label is the human readable name used in document listings.
func (t DocumentType) Label() string {
	switch t {
	case DocumentTypePassport:
		return "Passport"
	case DocumentTypeDriversLicense:
		return "Driver's License"
	case DocumentTypeNationalID:
		return "National ID"
	default:
		return string(t)
	}
}
