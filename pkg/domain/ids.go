package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "trustlessid/pkg/domain-errors"
)

// UserID identifies a demo account.
type UserID uuid.UUID

// SessionID identifies an enrollment workflow session.
type SessionID uuid.UUID

// CredentialID is the opaque public identifier of an issued credential.
// Issued values look like "cred_a1b2c3d4e5f6". Parsing only trims and
// requires a value, so any unknown id resolves to not-found rather than to a
// validation error.
type CredentialID string

// DocumentID references an uploaded document ("doc_…").
type DocumentID string

const (
	CredentialIDPrefix = "cred_"
	DocumentIDPrefix   = "doc_"

	maxOpaqueIDLength = 64
)

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SessionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// MarshalText keeps typed UUIDs readable in JSON.
func (id UserID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id SessionID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *SessionID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func (id CredentialID) String() string { return string(id) }
func (id DocumentID) String() string   { return string(id) }

// NewUserID mints a random user id.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewSessionID mints a random session id.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// NewCredentialID mints "cred_" followed by 12 lowercase hex characters.
func NewCredentialID() CredentialID {
	return CredentialID(CredentialIDPrefix + shortHex())
}

// NewDocumentID mints "doc_" followed by 12 lowercase hex characters.
func NewDocumentID() DocumentID {
	return DocumentID(DocumentIDPrefix + shortHex())
}

func shortHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ParseUserID validates a UUID string at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

// ParseSessionID validates a UUID string at a trust boundary.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session_id")
	return SessionID(u), err
}

// ParseCredentialID trims a credential id and requires it to be non-empty.
func ParseCredentialID(s string) (CredentialID, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "credential id is required")
	}
	return CredentialID(v), nil
}

// Issuable reports whether id has a shape the issuer could have minted:
// bounded, valid UTF-8 and printable without whitespace. Ids that fail this
// can never match a stored credential.
func (id CredentialID) Issuable() bool {
	return checkOpaque(string(id)) == ""
}

// ParseDocumentID trims and bounds a document reference.
func ParseDocumentID(s string) (DocumentID, error) {
	v, err := parseOpaque(s, "document id")
	return DocumentID(v), err
}

func parseUUID(s, field string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+field)
	}
	return u, nil
}

func parseOpaque(s, field string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if problem := checkOpaque(v); problem != "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, field+" "+problem)
	}
	return v, nil
}

// checkOpaque describes what is wrong with v, or returns "" when v is a
// well-formed opaque id.
func checkOpaque(v string) string {
	if len(v) > maxOpaqueIDLength {
		return "is too long"
	}
	if !utf8.ValidString(v) {
		return "contains invalid characters"
	}
	for _, r := range v {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return "contains invalid characters"
		}
	}
	return ""
}
