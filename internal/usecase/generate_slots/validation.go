package generate_slots

import (
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// validateRequest проверяет период и длительность слота
func validateRequest(req *Request, duration int) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidInput)
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}

	if !domain.IsValidDuration(duration) {
		return fmt.Errorf("%w: %d minutes, allowed %d-%d", ErrInvalidDuration,
			duration, domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes)
	}

	start := domain.DateOnly(req.StartDate)
	end := domain.DateOnly(req.EndDate)
	if end.Before(start) {
		return fmt.Errorf("%w: %s < %s", ErrInvalidDateRange,
			end.Format(domain.DateFormat), start.Format(domain.DateFormat))
	}

	days := int(end.Sub(start).Hours()/24) + 1
	if days > domain.MaxGenerationDays {
		return fmt.Errorf("%w: %d days, max %d", ErrDateRangeTooLong, days, domain.MaxGenerationDays)
	}

	return nil
}
