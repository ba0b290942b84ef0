package fraud

import (
	"context"

	"trustlessid/internal/evidence/providers"
	"trustlessid/pkg/requestcontext"
)

// SimulatedProviderID names the in-process assessor in health reports.
const SimulatedProviderID = "simulated-fraud-assessor"

const lowConfidenceThreshold = 85

// SimulatedAssessor derives a synthetic score from the verification result.
// Without one it lands in the medium band.
type SimulatedAssessor struct {
	sim *providers.Simulator
}

func NewSimulatedAssessor(sim *providers.Simulator) *SimulatedAssessor {
	return &SimulatedAssessor{sim: sim}
}

func (a *SimulatedAssessor) ID() string                   { return SimulatedProviderID }
func (a *SimulatedAssessor) Kind() providers.Kind         { return providers.KindFraudDetection }
func (a *SimulatedAssessor) Health(context.Context) error { return nil }

func (a *SimulatedAssessor) Assess(ctx context.Context, req Request) (Assessment, error) {
	if err := req.Validate(); err != nil {
		return Assessment{}, err
	}
	if err := a.sim.Call(ctx, SimulatedProviderID); err != nil {
		return Assessment{}, err
	}

	v := req.Verification
	if v == nil {
		flags := []Flag{{
			Code:        FlagVerificationUnavailable,
			Description: "Document verification result was not available",
		}}
		return NewAssessment(45+a.sim.Between(0, 10), flags, requestcontext.Now(ctx)), nil
	}

	score := (100 - v.AuthenticityScore) + (100-v.ConfidenceScore)/2 + 15*len(v.Anomalies) + a.sim.Between(0, 5)

	flags := make([]Flag, 0, len(v.Anomalies)+1)
	for _, anomaly := range v.Anomalies {
		flags = append(flags, Flag{Code: FlagDocumentAnomaly, Description: anomaly})
	}
	if v.ConfidenceScore < lowConfidenceThreshold {
		flags = append(flags, Flag{
			Code:        FlagLowConfidence,
			Description: "Verification confidence is below the expected threshold",
		})
	}
	return NewAssessment(score, flags, requestcontext.Now(ctx)), nil
}

// Fixed always returns the same assessment.
type Fixed struct {
	Score int
	Flags []Flag
}

func (f Fixed) Assess(ctx context.Context, req Request) (Assessment, error) {
	if err := req.Validate(); err != nil {
		return Assessment{}, err
	}
	return NewAssessment(f.Score, append([]Flag(nil), f.Flags...), requestcontext.Now(ctx)), nil
}
