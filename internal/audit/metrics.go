package audit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the activity log.
type Metrics struct {
	Emitted      *prometheus.CounterVec
	Dropped      prometheus.Counter
	SinkFailures prometheus.Counter
	Forwarded    prometheus.Counter
}

// NewMetrics registers activity metrics with reg. A nil reg leaves them
// unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_activity_emitted_total",
			Help: "Total activity events emitted by action",
		}, []string{"action"}),
		Dropped: f.NewCounter(prometheus.CounterOpts{
			Name: "trustlessid_activity_fanout_dropped_total",
			Help: "Total activity events dropped because the fan-out buffer was full",
		}),
		SinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trustlessid_activity_sink_failures_total",
			Help: "Total failed batch deliveries to the activity sink",
		}),
		Forwarded: f.NewCounter(prometheus.CounterOpts{
			Name: "trustlessid_activity_forwarded_total",
			Help: "Total activity events delivered to the sink",
		}),
	}
}

func (m *Metrics) IncEmitted(action Action) {
	if m != nil {
		m.Emitted.WithLabelValues(string(action)).Inc()
	}
}

func (m *Metrics) IncDropped() {
	if m != nil {
		m.Dropped.Inc()
	}
}

func (m *Metrics) IncSinkFailures() {
	if m != nil {
		m.SinkFailures.Inc()
	}
}

func (m *Metrics) AddForwarded(n int) {
	if m != nil {
		m.Forwarded.Add(float64(n))
	}
}
