package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for workflow sessions.
type Metrics struct {
	// Sessions started
	SessionsStarted prometheus.Counter

	// Stage transitions by target stage
	Transitions *prometheus.CounterVec

	// Stage failures reported as notices, by stage
	StageFailures *prometheus.CounterVec

	// Rejected submissions by reason ("busy", "invalid_transition", "validation")
	Rejections *prometheus.CounterVec

	// Sessions reaching the complete stage, by whether a credential was issued
	Completed *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SessionsStarted: f.NewCounter(prometheus.CounterOpts{
			Name: "trustlessid_workflow_sessions_started_total",
			Help: "Total identity workflow sessions started",
		}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_workflow_transitions_total",
			Help: "Total workflow transitions by target stage",
		}, []string{"stage"}),
		StageFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_workflow_stage_failures_total",
			Help: "Total stage failures that advanced with a notice",
		}, []string{"stage"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_workflow_rejections_total",
			Help: "Total rejected workflow submissions by reason",
		}, []string{"reason"}),
		Completed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustlessid_workflow_completed_total",
			Help: "Total sessions completed by credential outcome",
		}, []string{"credential"}),
	}
}

func (m *Metrics) IncSessionsStarted() {
	if m != nil {
		m.SessionsStarted.Inc()
	}
}

func (m *Metrics) IncTransition(stage string) {
	if m != nil {
		m.Transitions.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) IncStageFailure(stage string) {
	if m != nil {
		m.StageFailures.WithLabelValues(stage).Inc()
	}
}

func (m *Metrics) IncRejection(reason string) {
	if m != nil {
		m.Rejections.WithLabelValues(reason).Inc()
	}
}

// IncCompleted counts a completed session; issued reports whether it ended
// with a credential.
func (m *Metrics) IncCompleted(issued bool) {
	if m == nil {
		return
	}
	label := "issued"
	if !issued {
		label = "missing"
	}
	m.Completed.WithLabelValues(label).Inc()
}
