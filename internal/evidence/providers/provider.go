package providers

import (
	"context"
	"fmt"
	"sort"
)

// Kind identifies which workflow capability a provider backs.
type Kind string

const (
	KindDocumentAnalysis Kind = "document_analysis"
	KindFraudDetection   Kind = "fraud_detection"
	KindCredentialIssuer Kind = "credential_issuer"
)

// Provider is the minimal surface every stub backend exposes for health
// reporting.
type Provider interface {
	ID() string
	Kind() Kind
	Health(ctx context.Context) error
}

// Status is one row of the health report.
type Status struct {
	ID      string `json:"id"`
	Kind    Kind   `json:"kind"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// Registry maintains all registered providers.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds a provider; ids must be unique.
func (r *Registry) Register(p Provider) error {
	id := p.ID()
	if _, exists := r.providers[id]; exists {
		return fmt.Errorf("provider %s already registered", id)
	}
	r.providers[id] = p
	return nil
}

// Check runs every provider's health check, ordered by id.
func (r *Registry) Check(ctx context.Context) []Status {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Status, 0, len(ids))
	for _, id := range ids {
		p := r.providers[id]
		st := Status{ID: id, Kind: p.Kind(), Healthy: true}
		if err := p.Health(ctx); err != nil {
			st.Healthy = false
			st.Error = err.Error()
		}
		out = append(out, st)
	}
	return out
}
