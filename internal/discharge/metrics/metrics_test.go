package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersPerRegistry(t *testing.T) {
	// Two instances in one process must not collide as long as each gets its
	// own registry.
	require.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}

func TestMetricsRecordThroughRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveCheckLatency("Lab", 25*time.Millisecond)
	m.IncrementFallback("Pharmacy", "timeout")
	m.IncrementOutcome("HOLD")
	m.ObserveRunLatency(120 * time.Millisecond)
	m.IncrementEscalations("Lab Portal", 2)
	m.IncrementEscalations("Billing Portal", 0) // zero counts are not recorded

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["clearpath_check_duration_seconds"])
	assert.True(t, names["clearpath_check_fallbacks_total"])
	assert.True(t, names["clearpath_decision_outcomes_total"])
	assert.True(t, names["clearpath_run_duration_seconds"])
	assert.True(t, names["clearpath_escalation_alerts_total"])
}

func TestNilMetricsMethodsAreSafe(t *testing.T) {
	var m *Metrics

	require.NotPanics(t, func() {
		m.ObserveCheckLatency("Lab", time.Millisecond)
		m.IncrementFallback("Lab", "panic")
		m.IncrementOutcome("APPROVE")
		m.ObserveRunLatency(time.Millisecond)
		m.IncrementEscalations("General Operations", 1)
	})
}
