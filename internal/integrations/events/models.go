package events

import "time"

// Типы событий
const (
	TypeAppointmentConfirmed = "appointment.confirmed.v1"
	TypeAppointmentReminder  = "appointment.reminder.v1"
	TypeIntegrityViolation   = "appointment.integrity_violation.v1"
)

// AppointmentEvent событие по записи для внешнего сервиса уведомлений
type AppointmentEvent struct {
	Type          string    `json:"type"`
	AppointmentID string    `json:"appointment_id"`
	TimeSlotID    string    `json:"time_slot_id"`
	OrderID       *string   `json:"order_id,omitempty"`
	ClientEmail   string    `json:"client_email"`
	ClientName    string    `json:"client_name"`
	ClientPhone   string    `json:"client_phone"`
	Service       string    `json:"service"`
	Notes         *string   `json:"notes,omitempty"`
	Date          string    `json:"date"`       // "2025-10-15"
	StartTime     string    `json:"start_time"` // "10:00"
	EndTime       string    `json:"end_time"`   // "11:00"
	StartsAt      time.Time `json:"starts_at"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// IntegrityEvent событие о нарушении целостности для операторов
type IntegrityEvent struct {
	Type          string    `json:"type"`
	Kind          string    `json:"kind"`
	AppointmentID string    `json:"appointment_id"`
	TimeSlotID    string    `json:"time_slot_id"`
	Reason        string    `json:"reason"`
	DetectedAt    time.Time `json:"detected_at"`
}
