package verification

import (
	"time"

	"trustlessid/internal/evidence/vc/models"
	id "trustlessid/pkg/domain"
)

// PublicVerification is the unauthenticated view of a credential. It carries
// no owner or document identifiers.
type PublicVerification struct {
	CredentialID   id.CredentialID       `json:"credentialId"`
	CredentialType models.CredentialType `json:"credentialType"`
	IssueDate      time.Time             `json:"issueDate"`
	IsValid        bool                  `json:"isValid"`
	TrustScore     int                   `json:"trustScore"`
	VerifiedAt     time.Time             `json:"verifiedAt"`
}

const (
	baseTrustScore = 80
	maxTrustScore  = 100
)

// TrustScore is 0 for an invalid credential; otherwise it starts at 80 and
// gains a point per recorded verification, capped at 100.
func TrustScore(valid bool, verificationCount int) int {
	if !valid {
		return 0
	}
	return min(maxTrustScore, baseTrustScore+max(verificationCount, 0))
}

// TrustLabel is the presentational band for a trust score.
func TrustLabel(score int) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 80:
		return "Very Good"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	default:
		return "Low"
	}
}

// Project builds the public view of c as observed at now.
func Project(c models.Credential, now time.Time) PublicVerification {
	valid := c.IsValid(now)
	return PublicVerification{
		CredentialID:   c.ID,
		CredentialType: c.Type,
		IssueDate:      c.IssuedAt,
		IsValid:        valid,
		TrustScore:     TrustScore(valid, c.VerificationCount),
		VerifiedAt:     now,
	}
}
