// Package fraud is the fraud detection stub. It turns a verification result
// into a risk score, a risk level and a recommendation.
package fraud

import (
	"context"
	"time"

	"trustlessid/internal/evidence/analysis"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
)

// RiskLevel buckets the risk score.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Recommendation is the suggested action for a risk level.
type Recommendation string

const (
	RecommendApprove      Recommendation = "approve"
	RecommendManualReview Recommendation = "manual_review"
	RecommendReject       Recommendation = "reject"
)

// Severity is the presentational tone of a risk level.
type Severity string

const (
	SeverityFavorable   Severity = "favorable"
	SeverityCaution     Severity = "caution"
	SeverityUnfavorable Severity = "unfavorable"
)

// Flag codes raised by the assessor.
const (
	FlagVerificationUnavailable = "verification_unavailable"
	FlagDocumentAnomaly         = "document_anomaly"
	FlagLowConfidence           = "low_confidence"
)

// Request carries the prior verification result. Verification is nil when
// the analysis stage failed.
type Request struct {
	DocumentID   id.DocumentID
	UserID       id.UserID
	Verification *analysis.Result
}

// Flag is one reason contributing to the risk score.
type Flag struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Assessment is the fraud stage output. Produced once per submission.
type Assessment struct {
	RiskScore      int            `json:"riskScore"`
	RiskLevel      RiskLevel      `json:"riskLevel"`
	Recommendation Recommendation `json:"recommendation"`
	Flags          []Flag         `json:"flags"`
	AssessedAt     time.Time      `json:"assessedAt"`
}

// FraudAssessor scores a submission. One call per submission, no retries.
type FraudAssessor interface {
	Assess(ctx context.Context, req Request) (Assessment, error)
}

// LevelForScore maps a risk score to its level: below 30 is low, below 70
// is medium, anything else is high.
func LevelForScore(score int) RiskLevel {
	switch {
	case score < 30:
		return RiskLow
	case score < 70:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Recommendation returns the action suggested for the level.
func (l RiskLevel) Recommendation() Recommendation {
	switch l {
	case RiskLow:
		return RecommendApprove
	case RiskMedium:
		return RecommendManualReview
	default:
		return RecommendReject
	}
}

// Severity returns the presentational tone for the level.
func (l RiskLevel) Severity() Severity {
	switch l {
	case RiskLow:
		return SeverityFavorable
	case RiskMedium:
		return SeverityCaution
	default:
		return SeverityUnfavorable
	}
}

func (l RiskLevel) IsValid() bool {
	return l == RiskLow || l == RiskMedium || l == RiskHigh
}

// Validate checks the request before scoring.
func (r Request) Validate() error {
	if r.DocumentID == "" {
		return dErrors.New(dErrors.CodeValidation, "document id is required")
	}
	if r.UserID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "user id is required")
	}
	if r.Verification != nil {
		if err := r.Verification.Check(); err != nil {
			return dErrors.Wrap(err, dErrors.CodeValidation, "invalid verification data")
		}
	}
	return nil
}

// Check rejects assessments that break the score and level invariants. Used
// on data that crossed a process boundary.
func (a Assessment) Check() error {
	if a.RiskScore < 0 || a.RiskScore > 100 {
		return dErrors.New(dErrors.CodeInvariantViolation, "risk score out of range")
	}
	if !a.RiskLevel.IsValid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "unknown risk level: "+string(a.RiskLevel))
	}
	return nil
}

// NewAssessment derives level and recommendation from a clamped score.
func NewAssessment(score int, flags []Flag, at time.Time) Assessment {
	score = min(max(score, 0), 100)
	level := LevelForScore(score)
	if flags == nil {
		flags = []Flag{}
	}
	return Assessment{
		RiskScore:      score,
		RiskLevel:      level,
		Recommendation: level.Recommendation(),
		Flags:          flags,
		AssessedAt:     at,
	}
}
