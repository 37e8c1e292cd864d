package domain

import (
	"time"

	"github.com/google/uuid"
)

// InconsistencyKind тип нарушения инварианта "confirmed запись <=> единица емкости слота"
type InconsistencyKind string

const (
	// InconsistencyCompensationFailed запись создана, емкость не зарезервирована, откат не удался
	InconsistencyCompensationFailed InconsistencyKind = "compensation_failure"

	// InconsistencyCapacityNotReleased запись отменена, но емкость слота не освобождена
	InconsistencyCapacityNotReleased InconsistencyKind = "capacity_not_released"

	// InconsistencyReminderNotMarked напоминание отправлено, но флаг reminderSent не сохранен
	InconsistencyReminderNotMarked InconsistencyKind = "reminder_not_marked"
)

// Inconsistency describes a record left inconsistent with the capacity invariant
type Inconsistency struct {
	Kind          InconsistencyKind
	AppointmentID uuid.UUID
	TimeSlotID    uuid.UUID
	Reason        string
	DetectedAt    time.Time
}
