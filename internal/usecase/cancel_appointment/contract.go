package cancel_appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	DecrementBookingsFloored(ctx context.Context, id uuid.UUID) (bool, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	CancelIfConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
}

// IntegrityReporter интерфейс для сообщений о нарушении целостности данных
type IntegrityReporter interface {
	Report(ctx context.Context, inc domain.Inconsistency)
}

// MetricsCollector интерфейс для учета отмен
type MetricsCollector interface {
	ObserveCancellation(result string)
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
