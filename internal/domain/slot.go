package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// TimeSlot represents a bookable time window with a bounded capacity
// Invariant: 0 <= CurrentBookings <= MaxCapacity
type TimeSlot struct {
	ID              uuid.UUID
	Date            time.Time // дата без времени
	StartTime       types.TimeString
	EndTime         types.TimeString
	MaxCapacity     int
	CurrentBookings int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AvailableSpots returns the number of free capacity units, never negative
func (s *TimeSlot) AvailableSpots() int {
	available := s.MaxCapacity - s.CurrentBookings
	if available < 0 {
		return 0
	}
	return available
}

// IsFull returns true if the slot admits no more bookings
func (s *TimeSlot) IsFull() bool {
	return s.AvailableSpots() <= 0
}

// StartsAt returns the slot start instant in the given location
func (s *TimeSlot) StartsAt(loc *time.Location) (time.Time, error) {
	return s.StartTime.On(s.Date, loc)
}

// DateOnly отбрасывает время, оставляя календарную дату в UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
