package domain

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// IsValid returns true for known statuses
func (s AppointmentStatus) IsValid() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// Appointment represents a client appointment that holds one unit of slot capacity while confirmed
type Appointment struct {
	ID          uuid.UUID
	OrderID     *uuid.UUID // слабая ссылка на заказ, без владения
	TimeSlotID  uuid.UUID
	ClientEmail string
	ClientName  string
	ClientPhone string
	Service     string
	Notes       *string

	Status       AppointmentStatus
	ReminderSent bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsConfirmed returns true if the appointment still consumes slot capacity
func (a *Appointment) IsConfirmed() bool {
	return a.Status == StatusConfirmed
}

// IsCancelled returns true if the appointment has been cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}

// NeedsReminder returns true if the appointment is confirmed and no reminder was delivered yet
func (a *Appointment) NeedsReminder() bool {
	return a.IsConfirmed() && !a.ReminderSent
}

// AppointmentPatch частичное обновление записи; nil-поля не меняются
type AppointmentPatch struct {
	Status       *AppointmentStatus
	ReminderSent *bool
	Notes        *string
}

// IsEmpty returns true if the patch changes nothing
func (p AppointmentPatch) IsEmpty() bool {
	return p.Status == nil && p.ReminderSent == nil && p.Notes == nil
}

// Apply применяет патч к записи
func (p AppointmentPatch) Apply(a *Appointment) {
	if p.Status != nil {
		a.Status = *p.Status
	}
	if p.ReminderSent != nil {
		a.ReminderSent = *p.ReminderSent
	}
	if p.Notes != nil {
		a.Notes = p.Notes
	}
}

// AppointmentsFilter фильтр для выборки записей
type AppointmentsFilter struct {
	Status       *AppointmentStatus // Фильтр по статусу (опционально)
	ReminderSent *bool              // Фильтр по признаку отправленного напоминания (опционально)
	TimeSlotID   *uuid.UUID         // Записи конкретного слота (опционально)
	SlotDateFrom *time.Time         // Начало периода по дате слота, включительно (опционально)
	SlotDateTo   *time.Time         // Конец периода по дате слота, включительно (опционально)
	Limit        int
	Offset       int
}
