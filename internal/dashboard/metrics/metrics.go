package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for dashboard aggregation.
type Metrics struct {
	// Read latencies by source
	SourceLatency *prometheus.HistogramVec

	// Overall summary latency
	SummaryLatency prometheus.Histogram

	// Failed summaries by source
	SourceFailures *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SourceLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustlessid_dashboard_source_duration_seconds",
			Help:    "Duration of dashboard reads by source",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"source"}), // source: "documents", "credentials", "activity"

		SummaryLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustlessid_dashboard_summary_duration_seconds",
			Help:    "Duration of a full dashboard summary",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		SourceFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_dashboard_source_failures_total",
			Help: "Dashboard reads that failed, by source",
		}, []string{"source"}),
	}
}

func (m *Metrics) ObserveSourceLatency(source string, d time.Duration) {
	if m != nil {
		m.SourceLatency.WithLabelValues(source).Observe(d.Seconds())
	}
}

func (m *Metrics) ObserveSummaryLatency(d time.Duration) {
	if m != nil {
		m.SummaryLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementSourceFailure(source string) {
	if m != nil {
		m.SourceFailures.WithLabelValues(source).Inc()
	}
}
