package notifier

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

type fakeDialer struct {
	mu       sync.Mutex
	messages []*gomail.Message
	err      error
	delay    time.Duration
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.messages = append(d.messages, m...)
	return nil
}

type publishedEvent struct {
	topic string
	key   string
	event interface{}
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, topic, key string, event interface{}) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

type fakePoster struct {
	eventTypes []string
	payloads   []interface{}
}

func (p *fakePoster) Post(_ context.Context, eventType string, payload interface{}) error {
	p.eventTypes = append(p.eventTypes, eventType)
	p.payloads = append(p.payloads, payload)
	return nil
}

func testAppointment(t *testing.T) (*domain.Appointment, *domain.TimeSlot) {
	t.Helper()

	start, err := types.NewTimeStringFromString("10:00")
	require.NoError(t, err)
	end, err := types.NewTimeStringFromString("11:00")
	require.NoError(t, err)

	notes := "bring previous results"
	slot := &domain.TimeSlot{
		ID:          uuid.New(),
		Date:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		StartTime:   start,
		EndTime:     end,
		MaxCapacity: 5,
	}
	appt := &domain.Appointment{
		ID:          uuid.New(),
		TimeSlotID:  slot.ID,
		ClientEmail: "jane@example.com",
		ClientName:  "Jane Doe",
		ClientPhone: "+237650000000",
		Service:     "Consultation",
		Notes:       &notes,
		Status:      domain.StatusConfirmed,
	}
	return appt, slot
}

func messageBody(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestEmailNotifier_SendBookingConfirmation(t *testing.T) {
	appt, slot := testAppointment(t)
	dialer := &fakeDialer{}
	n := newEmailNotifier(EmailConfig{From: "noreply@clinic.test", FromName: "Clinic"}, dialer, logger.Nop())

	require.NoError(t, n.SendBookingConfirmation(context.Background(), appt, slot))

	require.Len(t, dialer.messages, 1)
	msg := dialer.messages[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.GetHeader("To"))
	assert.Contains(t, msg.GetHeader("Subject")[0], "Appointment confirmed")

	body := messageBody(t, msg)
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "2025-03-14")
	assert.Contains(t, body, "10:00 - 11:00")
	assert.Contains(t, body, "bring previous results")
}

func TestEmailNotifier_SendReminder(t *testing.T) {
	appt, slot := testAppointment(t)
	dialer := &fakeDialer{}
	n := newEmailNotifier(EmailConfig{From: "noreply@clinic.test"}, dialer, logger.Nop())

	require.NoError(t, n.SendReminder(context.Background(), appt, slot))

	require.Len(t, dialer.messages, 1)
	assert.Contains(t, dialer.messages[0].GetHeader("Subject")[0], "Reminder")
	assert.Contains(t, messageBody(t, dialer.messages[0]), "upcoming appointment")
}

func TestEmailNotifier_Errors(t *testing.T) {
	appt, slot := testAppointment(t)

	t.Run("smtp failure", func(t *testing.T) {
		n := newEmailNotifier(EmailConfig{From: "noreply@clinic.test"}, &fakeDialer{err: errors.New("connection refused")}, logger.Nop())
		err := n.SendReminder(context.Background(), appt, slot)
		assert.ErrorIs(t, err, ErrSend)
	})

	t.Run("empty recipient", func(t *testing.T) {
		n := newEmailNotifier(EmailConfig{From: "noreply@clinic.test"}, &fakeDialer{}, logger.Nop())
		noEmail := *appt
		noEmail.ClientEmail = " "
		err := n.SendReminder(context.Background(), &noEmail, slot)
		assert.ErrorIs(t, err, ErrInvalidMessage)
	})

	t.Run("timeout", func(t *testing.T) {
		n := newEmailNotifier(EmailConfig{From: "noreply@clinic.test", Timeout: 20 * time.Millisecond},
			&fakeDialer{delay: 200 * time.Millisecond}, logger.Nop())
		err := n.SendReminder(context.Background(), appt, slot)
		assert.ErrorIs(t, err, ErrSend)
	})

	t.Run("context cancelled", func(t *testing.T) {
		n := newEmailNotifier(EmailConfig{From: "noreply@clinic.test"}, &fakeDialer{delay: 200 * time.Millisecond}, logger.Nop())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := n.SendReminder(ctx, appt, slot)
		assert.ErrorIs(t, err, ErrSend)
	})
}

func TestNewEmailNotifier_RequiresFrom(t *testing.T) {
	_, err := NewEmailNotifier(EmailConfig{Host: "localhost", Port: 25}, logger.Nop())
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestKafkaNotifier(t *testing.T) {
	appt, slot := testAppointment(t)
	orderID := uuid.New()
	appt.OrderID = &orderID

	loc, err := time.LoadLocation("Africa/Douala")
	require.NoError(t, err)

	pub := &fakePublisher{}
	n := NewKafkaNotifier(pub, "appointments.notifications", loc, logger.Nop())

	require.NoError(t, n.SendBookingConfirmation(context.Background(), appt, slot))
	require.NoError(t, n.SendReminder(context.Background(), appt, slot))

	require.Len(t, pub.published, 2)
	first := pub.published[0]
	assert.Equal(t, "appointments.notifications", first.topic)
	assert.Equal(t, appt.ID.String(), first.key)

	event, ok := first.event.(events.AppointmentEvent)
	require.True(t, ok)
	assert.Equal(t, events.TypeAppointmentConfirmed, event.Type)
	require.NotNil(t, event.OrderID)
	assert.Equal(t, orderID.String(), *event.OrderID)
	// 10:00 в Дуале (UTC+1) это 09:00 UTC
	assert.Equal(t, time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC), event.StartsAt.UTC())

	second, ok := pub.published[1].event.(events.AppointmentEvent)
	require.True(t, ok)
	assert.Equal(t, events.TypeAppointmentReminder, second.Type)
}

func TestKafkaNotifier_PublishError(t *testing.T) {
	appt, slot := testAppointment(t)
	n := NewKafkaNotifier(&fakePublisher{err: errors.New("broker down")}, "topic", nil, logger.Nop())

	err := n.SendReminder(context.Background(), appt, slot)
	assert.ErrorIs(t, err, ErrSend)
}

func TestWebhookNotifier(t *testing.T) {
	appt, slot := testAppointment(t)
	poster := &fakePoster{}
	n := NewWebhookNotifier(poster, nil, logger.Nop())

	require.NoError(t, n.SendReminder(context.Background(), appt, slot))

	require.Equal(t, []string{events.TypeAppointmentReminder}, poster.eventTypes)
	event, ok := poster.payloads[0].(events.AppointmentEvent)
	require.True(t, ok)
	assert.Equal(t, appt.ID.String(), event.AppointmentID)
	assert.Equal(t, "10:00", event.StartTime)
}

func TestNoopNotifier(t *testing.T) {
	appt, slot := testAppointment(t)
	n := NewNoopNotifier(logger.Nop())

	assert.NoError(t, n.SendBookingConfirmation(context.Background(), appt, slot))
	assert.NoError(t, n.SendReminder(context.Background(), appt, slot))
}
