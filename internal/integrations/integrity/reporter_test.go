package integrity

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
)

type fakePublisher struct {
	topics []string
	events []interface{}
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, topic, _ string, event interface{}) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

type countingMetrics struct {
	kinds []string
}

func (m *countingMetrics) ObserveIntegrityViolation(kind string) {
	m.kinds = append(m.kinds, kind)
}

func TestReport_PublishesEvent(t *testing.T) {
	pub := &fakePublisher{}
	m := &countingMetrics{}
	r := NewReporter(pub, "appointments.integrity", m, logger.Nop())

	apptID, slotID := uuid.New(), uuid.New()
	r.Report(context.Background(), domain.Inconsistency{
		Kind:          domain.InconsistencyCompensationFailed,
		AppointmentID: apptID,
		TimeSlotID:    slotID,
		Reason:        "delete failed",
	})

	assert.Equal(t, []string{"compensation_failure"}, m.kinds)
	require.Len(t, pub.events, 1)
	assert.Equal(t, "appointments.integrity", pub.topics[0])

	event, ok := pub.events[0].(events.IntegrityEvent)
	require.True(t, ok)
	assert.Equal(t, events.TypeIntegrityViolation, event.Type)
	assert.Equal(t, apptID.String(), event.AppointmentID)
	assert.Equal(t, slotID.String(), event.TimeSlotID)
	assert.False(t, event.DetectedAt.IsZero())
}

func TestReport_CancelledContextStillPublishes(t *testing.T) {
	pub := &fakePublisher{}
	r := NewReporter(pub, "appointments.integrity", nil, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Report(ctx, domain.Inconsistency{Kind: domain.InconsistencyCapacityNotReleased})

	assert.Len(t, pub.events, 1)
}

func TestReport_WithoutPublisher(t *testing.T) {
	m := &countingMetrics{}
	r := NewReporter(nil, "", m, logger.Nop())

	r.Report(context.Background(), domain.Inconsistency{Kind: domain.InconsistencyReminderNotMarked})

	assert.Equal(t, []string{"reminder_not_marked"}, m.kinds)
}

func TestReport_PublishErrorIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	r := NewReporter(pub, "appointments.integrity", nil, logger.Nop())

	assert.NotPanics(t, func() {
		r.Report(context.Background(), domain.Inconsistency{Kind: domain.InconsistencyCapacityNotReleased})
	})
}
