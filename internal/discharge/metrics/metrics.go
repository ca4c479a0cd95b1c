package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the discharge verification engine.
type Metrics struct {
	// Per-check verification latency
	CheckLatency *prometheus.HistogramVec

	// Fallback substitutions by check and failure category
	CheckFallbacks *prometheus.CounterVec

	// Decision outcomes
	DecisionOutcome *prometheus.CounterVec

	// Full run latency including persistence and escalation
	RunLatency prometheus.Histogram

	// Escalation alerts routed, by department
	EscalationAlerts *prometheus.CounterVec
}

// New creates a Metrics instance with all engine metrics registered on reg.
// Callers that share a process register on prometheus.DefaultRegisterer once;
// tests pass their own prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CheckLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clearpath_check_duration_seconds",
			Help:    "Duration of discharge check verification by check name",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"check"}),

		CheckFallbacks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clearpath_check_fallbacks_total",
			Help: "Total fallback results substituted for failing checks",
		}, []string{"check", "category"}),

		DecisionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clearpath_decision_outcomes_total",
			Help: "Total discharge decisions by outcome",
		}, []string{"outcome"}),

		RunLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clearpath_run_duration_seconds",
			Help:    "Duration of full discharge verification runs",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		EscalationAlerts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clearpath_escalation_alerts_total",
			Help: "Total escalation alerts routed, by department",
		}, []string{"department"}),
	}
}

// ObserveCheckLatency records the duration of one check's verification.
func (m *Metrics) ObserveCheckLatency(check string, d time.Duration) {
	if m != nil {
		m.CheckLatency.WithLabelValues(check).Observe(d.Seconds())
	}
}

// IncrementFallback records a fallback substitution for a failing check.
func (m *Metrics) IncrementFallback(check, category string) {
	if m != nil {
		m.CheckFallbacks.WithLabelValues(check, category).Inc()
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveRunLatency records the total run duration.
func (m *Metrics) ObserveRunLatency(d time.Duration) {
	if m != nil {
		m.RunLatency.Observe(d.Seconds())
	}
}

// IncrementEscalations records alerts routed to a department.
func (m *Metrics) IncrementEscalations(department string, count int) {
	if m != nil && count > 0 {
		m.EscalationAlerts.WithLabelValues(department).Add(float64(count))
	}
}
