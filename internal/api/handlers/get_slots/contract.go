package get_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/service/slots/models"
)

type SlotService interface {
	GetByDate(ctx context.Context, date time.Time) (*models.SlotListResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
