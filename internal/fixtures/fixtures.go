// Package fixtures seeds the in-memory stores with the demo account the
// frontend and the public lookup examples rely on.
package fixtures

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"trustlessid/internal/audit"
	"trustlessid/internal/auth/models"
	"trustlessid/internal/document"
	"trustlessid/internal/evidence/vc"
	vcmodels "trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
)

const DemoEmail = "demo@trustlessid.com"

// DemoUserID is stable so tokens minted by the CLI survive restarts.
var DemoUserID = id.UserID(uuid.MustParse("5f0c6a1e-3b7d-4f2a-9c1e-8d4b2a6f7e10"))

// Well-known credential ids used by the public lookup examples.
const (
	ActiveIdentityCredential = id.CredentialID("cred_a1b2c3d4e5f6")
	ActiveAgeCredential      = id.CredentialID("cred_g7h8i9j0k1l2")
	RevokedAddressCredential = id.CredentialID("cred_m3n4o5p6q7r8")
)

const (
	passportDocument = id.DocumentID("doc_5e1a9c3b7d20")
	licenseDocument  = id.DocumentID("doc_8b4f2d6a1c93")
	nationalDocument = id.DocumentID("doc_c27e9a05f4b1")
)

type UserStore interface {
	Save(ctx context.Context, user *models.User) error
}

type CredentialStore interface {
	Save(ctx context.Context, credential vcmodels.Credential) error
}

type DocumentStore interface {
	Save(ctx context.Context, doc document.Document) error
}

type ActivityStore interface {
	Append(ctx context.Context, event audit.Event) error
}

// Stores are the destinations for seeded records.
type Stores struct {
	Users       UserStore
	Credentials CredentialStore
	Documents   DocumentStore
	Activity    ActivityStore
}

const day = 24 * time.Hour

// Seed writes the demo user with three documents, three credentials and a
// short activity trail, all dated relative to now.
func Seed(ctx context.Context, s Stores, now time.Time) error {
	user := &models.User{
		ID:        DemoUserID,
		Name:      "Demo User",
		Email:     DemoEmail,
		CreatedAt: now.Add(-45 * day),
	}
	if err := s.Users.Save(ctx, user); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}

	for _, doc := range demoDocuments(now) {
		if err := s.Documents.Save(ctx, doc); err != nil {
			return fmt.Errorf("seed document %s: %w", doc.ID, err)
		}
	}
	for _, cred := range demoCredentials(now) {
		if err := s.Credentials.Save(ctx, cred); err != nil {
			return fmt.Errorf("seed credential %s: %w", cred.ID, err)
		}
	}
	for i, event := range demoActivity(now) {
		event.ID = fmt.Sprintf("act_seed_%02d", i+1)
		event.UserID = DemoUserID
		if err := s.Activity.Append(ctx, event); err != nil {
			return fmt.Errorf("seed activity %s: %w", event.ID, err)
		}
	}
	return nil
}

func demoDocuments(now time.Time) []document.Document {
	return []document.Document{
		{
			ID:         passportDocument,
			UserID:     DemoUserID,
			Name:       "passport_scan.pdf",
			Type:       id.DocumentTypePassport,
			FileSize:   2_457_600,
			Status:     document.StatusVerified,
			UploadedAt: now.Add(-31 * day),
		},
		{
			ID:         licenseDocument,
			UserID:     DemoUserID,
			Name:       "drivers_license.jpg",
			Type:       id.DocumentTypeDriversLicense,
			FileSize:   1_153_434,
			Status:     document.StatusVerified,
			UploadedAt: now.Add(-15 * day),
		},
		{
			ID:         nationalDocument,
			UserID:     DemoUserID,
			Name:       "national_id_front.png",
			Type:       id.DocumentTypeNationalID,
			FileSize:   876_544,
			Status:     document.StatusPending,
			UploadedAt: now.Add(-2 * day),
		},
	}
}

func demoCredentials(now time.Time) []vcmodels.Credential {
	creds := []vcmodels.Credential{
		{
			ID:                ActiveIdentityCredential,
			Status:            vcmodels.StatusActive,
			Type:              vcmodels.CredentialTypeIdentity,
			DocumentID:        passportDocument,
			IssuedAt:          now.Add(-30 * day),
			VerificationCount: 12,
		},
		{
			ID:                ActiveAgeCredential,
			Status:            vcmodels.StatusActive,
			Type:              vcmodels.CredentialTypeAgeVerification,
			DocumentID:        licenseDocument,
			IssuedAt:          now.Add(-14 * day),
			VerificationCount: 5,
		},
		{
			ID:                RevokedAddressCredential,
			Status:            vcmodels.StatusRevoked,
			Type:              vcmodels.CredentialTypeAddress,
			DocumentID:        passportDocument,
			IssuedAt:          now.Add(-90 * day),
			VerificationCount: 3,
		},
	}
	for i := range creds {
		creds[i].UserID = DemoUserID
		creds[i].ExpiresAt = creds[i].IssuedAt.Add(vc.DefaultValidity)
		creds[i].Hash = vc.ContentHash(creds[i])
	}
	return creds
}

func demoActivity(now time.Time) []audit.Event {
	return []audit.Event{
		{Action: audit.ActionSignup, Description: "Account created", Timestamp: now.Add(-45 * day)},
		{Action: audit.ActionCredentialIssued, Description: "Address credential issued", Timestamp: now.Add(-90 * day).Add(time.Hour)},
		{Action: audit.ActionCredentialRevoked, Description: "Address credential revoked", Timestamp: now.Add(-40 * day)},
		{Action: audit.ActionDocumentUpload, Description: "Uploaded Passport (passport_scan.pdf)", Timestamp: now.Add(-31 * day)},
		{Action: audit.ActionVerification, Description: "Passport verified with 96% authenticity", Timestamp: now.Add(-31 * day).Add(time.Minute)},
		{Action: audit.ActionFraudCheck, Description: "Fraud check passed (low risk)", Timestamp: now.Add(-31 * day).Add(2 * time.Minute)},
		{Action: audit.ActionCredentialIssued, Description: "Identity credential issued", Timestamp: now.Add(-30 * day)},
		{Action: audit.ActionDocumentUpload, Description: "Uploaded Driver's License (drivers_license.jpg)", Timestamp: now.Add(-15 * day)},
		{Action: audit.ActionCredentialIssued, Description: "Age verification credential issued", Timestamp: now.Add(-14 * day)},
		{Action: audit.ActionCredentialVerified, Description: "Identity credential verified by a third party", Timestamp: now.Add(-3 * day)},
		{Action: audit.ActionDocumentUpload, Description: "Uploaded National ID (national_id_front.png)", Timestamp: now.Add(-2 * day)},
		{Action: audit.ActionLogin, Description: "Logged in from Chrome on macOS", Timestamp: now.Add(-time.Hour), Device: "Chrome on macOS"},
	}
}
