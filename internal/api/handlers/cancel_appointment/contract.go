package cancel_appointment

import (
	"context"

	"github.com/google/uuid"
)

type CancelAppointmentUseCase interface {
	Execute(ctx context.Context, id uuid.UUID) (bool, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
