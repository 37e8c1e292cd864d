package reminder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.AppointmentPatch) (*domain.Appointment, error)
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error)
}

// Notifier интерфейс отправки напоминаний
type Notifier interface {
	SendReminder(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error
}

// Claimer захват записи на время отправки напоминания
// Claim возвращает false, если запись уже обрабатывается
type Claimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// IntegrityReporter интерфейс для сообщений о нарушении целостности данных
type IntegrityReporter interface {
	Report(ctx context.Context, inc domain.Inconsistency)
}

// MetricsCollector интерфейс для метрик напоминаний
type MetricsCollector interface {
	ObserveReminder(result string)
	ObserveReminderTick(d time.Duration)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
