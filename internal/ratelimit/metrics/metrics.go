package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions     *prometheus.CounterVec
	BackendErrors prometheus.Counter
	Degraded      prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_ratelimit_decisions_total",
			Help: "Rate limit decisions by scope and outcome",
		}, []string{"scope", "outcome"}),
		BackendErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "trustlessid_ratelimit_backend_errors_total",
			Help: "Errors returned by the primary rate limit backend",
		}),
		Degraded: f.NewGauge(prometheus.GaugeOpts{
			Name: "trustlessid_ratelimit_degraded",
			Help: "1 while requests are limited by the in-memory fallback",
		}),
	}
}

func (m *Metrics) ObserveDecision(scope string, allowed bool) {
	if m == nil {
		return
	}
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.Decisions.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) IncrementBackendErrors() {
	if m == nil {
		return
	}
	m.BackendErrors.Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if m == nil {
		return
	}
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
