package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the stub endpoints.
type Metrics struct {
	// Stub calls by stub name and outcome ("ok", "failed")
	StubCalls *prometheus.CounterVec

	// Stub call latency by stub name
	StubLatency *prometheus.HistogramVec

	// Credentials issued
	CredentialsIssued prometheus.Counter
}

// New registers the stub metrics with reg. A nil reg builds unregistered
// collectors, which keeps tests free of duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StubCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_stub_calls_total",
			Help: "Total stub calls by stub and outcome",
		}, []string{"stub", "outcome"}),

		StubLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustlessid_stub_duration_seconds",
			Help:    "Duration of stub calls",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"stub"}),

		CredentialsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "trustlessid_credentials_issued_total",
			Help: "Total credentials issued",
		}),
	}
}

// ObserveCall records one stub call.
func (m *Metrics) ObserveCall(stub string, err error, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.StubCalls.WithLabelValues(stub, outcome).Inc()
	m.StubLatency.WithLabelValues(stub).Observe(d.Seconds())
}

// IncrementCredentialsIssued counts a newly minted credential.
func (m *Metrics) IncrementCredentialsIssued() {
	if m != nil {
		m.CredentialsIssued.Inc()
	}
}
