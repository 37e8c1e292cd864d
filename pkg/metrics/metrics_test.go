package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Counters(t *testing.T) {
	m := New("appointments_test")

	m.ObserveBooking("success")
	m.ObserveBooking("success")
	m.ObserveBooking("capacity_exceeded")
	m.ObserveIntegrityViolation("compensation_failure")
	m.ObserveSlotsGenerated(9)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsTotal.WithLabelValues("capacity_exceeded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IntegrityViolations.WithLabelValues("compensation_failure")))
	assert.Equal(t, 9.0, testutil.ToFloat64(m.SlotsGeneratedTotal))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBooking("success")
		m.ObserveReminder("sent")
	})
}
