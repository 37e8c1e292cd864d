package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
)

// WebhookNotifier доставляет события записи по HTTP
type WebhookNotifier struct {
	poster   WebhookPoster
	location *time.Location
	logger   Logger
}

// NewWebhookNotifier создает уведомитель поверх WebhookPoster
func NewWebhookNotifier(poster WebhookPoster, loc *time.Location, logger Logger) *WebhookNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &WebhookNotifier{poster: poster, location: loc, logger: logger}
}

// SendBookingConfirmation отправляет событие appointment.confirmed.v1
func (n *WebhookNotifier) SendBookingConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	return n.post(ctx, events.TypeAppointmentConfirmed, appt, slot)
}

// SendReminder отправляет событие appointment.reminder.v1
func (n *WebhookNotifier) SendReminder(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	return n.post(ctx, events.TypeAppointmentReminder, appt, slot)
}

func (n *WebhookNotifier) post(ctx context.Context, eventType string, appt *domain.Appointment, slot *domain.TimeSlot) error {
	event := newAppointmentEvent(eventType, appt, slot, n.location)
	if err := n.poster.Post(ctx, eventType, event); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	return nil
}
