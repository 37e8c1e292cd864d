package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
)

// KafkaNotifier публикует события записи для внешнего сервиса уведомлений
type KafkaNotifier struct {
	publisher EventPublisher
	topic     string
	location  *time.Location
	logger    Logger
}

// NewKafkaNotifier создает уведомитель поверх EventPublisher
func NewKafkaNotifier(publisher EventPublisher, topic string, loc *time.Location, logger Logger) *KafkaNotifier {
	if loc == nil {
		loc = time.UTC
	}
	return &KafkaNotifier{publisher: publisher, topic: topic, location: loc, logger: logger}
}

// SendBookingConfirmation публикует событие appointment.confirmed.v1
func (n *KafkaNotifier) SendBookingConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	return n.publish(ctx, events.TypeAppointmentConfirmed, appt, slot)
}

// SendReminder публикует событие appointment.reminder.v1
func (n *KafkaNotifier) SendReminder(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	return n.publish(ctx, events.TypeAppointmentReminder, appt, slot)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType string, appt *domain.Appointment, slot *domain.TimeSlot) error {
	event := newAppointmentEvent(eventType, appt, slot, n.location)
	if err := n.publisher.Publish(ctx, n.topic, event.AppointmentID, event); err != nil {
		return fmt.Errorf("%w: %v", ErrSend, err)
	}
	n.logger.Info("KafkaNotifier: %s published for appointment id=%s", eventType, event.AppointmentID)
	return nil
}

func newAppointmentEvent(eventType string, appt *domain.Appointment, slot *domain.TimeSlot, loc *time.Location) events.AppointmentEvent {
	data := newMessageData(appt, slot, loc)
	event := events.AppointmentEvent{
		Type:          eventType,
		AppointmentID: data.AppointmentID,
		TimeSlotID:    appt.TimeSlotID.String(),
		ClientEmail:   appt.ClientEmail,
		ClientName:    appt.ClientName,
		ClientPhone:   appt.ClientPhone,
		Service:       appt.Service,
		Notes:         appt.Notes,
		Date:          data.Date,
		StartTime:     data.StartTime,
		EndTime:       data.EndTime,
		StartsAt:      data.StartsAt,
		OccurredAt:    time.Now().UTC(),
	}
	if appt.OrderID != nil {
		orderID := appt.OrderID.String()
		event.OrderID = &orderID
	}
	return event
}
