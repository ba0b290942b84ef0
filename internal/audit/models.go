package audit

import (
	"time"

	id "trustlessid/pkg/domain"
)

// Action names a user-visible activity.
type Action string

const (
	ActionLogin              Action = "login"
	ActionSignup             Action = "signup"
	ActionDocumentUpload     Action = "document_upload"
	ActionVerification       Action = "verification"
	ActionFraudCheck         Action = "fraud_check"
	ActionCredentialIssued   Action = "credential_issued"
	ActionCredentialRevoked  Action = "credential_revoked"
	ActionCredentialVerified Action = "credential_verified"
)

// Event is one entry of a user's activity trail. Append-only; stores and
// sinks never modify an event once emitted.
type Event struct {
	ID          string    `json:"id"`
	UserID      id.UserID `json:"userId"`
	Action      Action    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Device      string    `json:"device,omitempty"`
	RequestID   string    `json:"-"`
}
