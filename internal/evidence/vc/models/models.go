package models

import (
	"time"

	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// Status is the lifecycle state of a credential.
type Status string

const (
	StatusActive  Status = "active"
	StatusRevoked Status = "revoked"
)

// CredentialType names what the credential attests.
type CredentialType string

const (
	CredentialTypeIdentity        CredentialType = "identity"
	CredentialTypeAgeVerification CredentialType = "age_verification"
	CredentialTypeAddress         CredentialType = "address"
)

var validCredentialTypes = map[CredentialType]struct{}{
	CredentialTypeIdentity:        {},
	CredentialTypeAgeVerification: {},
	CredentialTypeAddress:         {},
}

// ParseCredentialType validates a credential type. Empty defaults to identity.
func ParseCredentialType(s string) (CredentialType, error) {
	if s == "" {
		return CredentialTypeIdentity, nil
	}
	t := CredentialType(s)
	if _, ok := validCredentialTypes[t]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unsupported credential type: "+s)
	}
	return t, nil
}

// Credential is a simulated on-chain identity credential.
// Invariants: VerificationCount never decreases; UserID and DocumentID are
// never projected to unauthenticated callers.
type Credential struct {
	ID                id.CredentialID `json:"id"`
	Hash              string          `json:"hash"`
	Status            Status          `json:"status"`
	Type              CredentialType  `json:"type"`
	UserID            id.UserID       `json:"userId"`
	DocumentID        id.DocumentID   `json:"documentId"`
	IssuedAt          time.Time       `json:"issuedAt"`
	ExpiresAt         time.Time       `json:"expiresAt"`
	VerificationCount int             `json:"verificationCount"`
}

// IsValid reports whether the credential is active and unexpired at now.
func (c Credential) IsValid(now time.Time) bool {
	return c.Status == StatusActive && now.Before(c.ExpiresAt)
}
