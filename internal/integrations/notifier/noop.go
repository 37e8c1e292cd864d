package notifier

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// NoopNotifier только логирует уведомления
type NoopNotifier struct {
	logger Logger
}

// NewNoopNotifier создает уведомитель без доставки
func NewNoopNotifier(logger Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

func (n *NoopNotifier) SendBookingConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	n.logger.Info("NoopNotifier: confirmation for appointment id=%s (%s %s)", appt.ID, slot.Date.Format(domain.DateFormat), slot.StartTime)
	return nil
}

func (n *NoopNotifier) SendReminder(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	n.logger.Info("NoopNotifier: reminder for appointment id=%s (%s %s)", appt.ID, slot.Date.Format(domain.DateFormat), slot.StartTime)
	return nil
}
