package analysis

import (
	"context"
	"slices"

	"trustlessid/internal/evidence/providers"
	"trustlessid/pkg/requestcontext"
)

// SimulatedProviderID names the in-process analyzer in health reports.
const SimulatedProviderID = "simulated-document-analyzer"

const anomalyChance = 0.15

var cannedAnomalies = []string{
	"Minor image compression artifacts detected",
	"Font inconsistency in date field",
	"Glare partially obscures a security feature",
	"Machine readable zone could not be fully read",
}

// SimulatedAnalyzer returns synthetic scores: authenticity in [85,99],
// confidence in [80,99] and occasionally one canned anomaly.
type SimulatedAnalyzer struct {
	sim *providers.Simulator
}

func NewSimulatedAnalyzer(sim *providers.Simulator) *SimulatedAnalyzer {
	return &SimulatedAnalyzer{sim: sim}
}

func (a *SimulatedAnalyzer) ID() string                   { return SimulatedProviderID }
func (a *SimulatedAnalyzer) Kind() providers.Kind         { return providers.KindDocumentAnalysis }
func (a *SimulatedAnalyzer) Health(context.Context) error { return nil }

// Analyze scores the document after the simulated latency. Injected failures
// surface as provider errors.
func (a *SimulatedAnalyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if err := a.sim.Call(ctx, SimulatedProviderID); err != nil {
		return Result{}, err
	}

	res := Result{
		AuthenticityScore: a.sim.Between(85, 99),
		ConfidenceScore:   a.sim.Between(80, 99),
		Anomalies:         []string{},
		AnalyzedAt:        requestcontext.Now(ctx),
	}
	if a.sim.Chance(anomalyChance) {
		res.Anomalies = append(res.Anomalies, a.sim.Pick(cannedAnomalies))
	}
	return res, nil
}

// Fixed always returns the same result. Used for demos and scenario tests.
type Fixed struct {
	Result Result
}

func (f Fixed) Analyze(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	res := f.Result
	res.Anomalies = slices.Clone(f.Result.Anomalies)
	if res.Anomalies == nil {
		res.Anomalies = []string{}
	}
	if res.AnalyzedAt.IsZero() {
		res.AnalyzedAt = requestcontext.Now(ctx)
	}
	return res, nil
}
