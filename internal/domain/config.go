package domain

import "github.com/m04kA/SMC-AppointmentService/pkg/types"

// SlotsConfig represents the working-hours configuration used to generate slots
type SlotsConfig struct {
	WorkingHoursStart   types.TimeString
	WorkingHoursEnd     types.TimeString
	SlotDurationMinutes int
	DefaultMaxCapacity  int
}

// IsValidDuration returns true if the duration is within the accepted bounds
func IsValidDuration(minutes int) bool {
	return minutes >= MinSlotDurationMinutes && minutes <= MaxSlotDurationMinutes
}
