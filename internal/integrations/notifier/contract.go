package notifier

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Notifier уведомления клиента о записи
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error
	SendReminder(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error
}

// EventPublisher интерфейс публикации событий; реализуется events.Producer
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event interface{}) error
}

// WebhookPoster интерфейс доставки событий по HTTP; реализуется webhook.Client
type WebhookPoster interface {
	Post(ctx context.Context, eventType string, payload interface{}) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
