package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for public credential lookups.
type Metrics struct {
	// Lookups by outcome: "valid", "invalid", "not_found"
	Lookups *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Lookups: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_verification_lookups_total",
			Help: "Total public credential lookups by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementLookup(outcome string) {
	if m != nil {
		m.Lookups.WithLabelValues(outcome).Inc()
	}
}
