package models

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

var (
	// ErrInvalidStatus возвращается при некорректном статусе
	ErrInvalidStatus = errors.New("invalid appointment status")
)

// Request модели

// ListAppointmentsRequest запрос на получение списка записей
type ListAppointmentsRequest struct {
	Status       *string    `json:"status,omitempty"`       // confirmed | cancelled
	ReminderSent *bool      `json:"reminderSent,omitempty"` // Фильтр по отправленному напоминанию
	TimeSlotID   *uuid.UUID `json:"timeSlotId,omitempty"`   // Записи конкретного слота
	DateFrom     *time.Time `json:"dateFrom,omitempty"`     // Начало периода по дате слота
	DateTo       *time.Time `json:"dateTo,omitempty"`       // Конец периода по дате слота
	Limit        int        `json:"limit,omitempty"`        // 1-1000, по умолчанию 100
	Offset       int        `json:"offset,omitempty"`
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListAppointmentsRequest) ToDomainFilter() (domain.AppointmentsFilter, error) {
	filter := domain.AppointmentsFilter{
		ReminderSent: r.ReminderSent,
		TimeSlotID:   r.TimeSlotID,
		SlotDateFrom: r.DateFrom,
		SlotDateTo:   r.DateTo,
		Limit:        r.Limit,
		Offset:       r.Offset,
	}

	if r.Status != nil {
		status, err := ToDomainAppointmentStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// Response модели

// AppointmentResponse ответ с данными записи
type AppointmentResponse struct {
	ID           string  `json:"id"`
	OrderID      *string `json:"orderId,omitempty"`
	TimeSlotID   string  `json:"timeSlotId"`
	ClientEmail  string  `json:"clientEmail"`
	ClientName   string  `json:"clientName"`
	ClientPhone  string  `json:"clientPhone"`
	Service      string  `json:"service"`
	Notes        *string `json:"notes,omitempty"`
	Status       string  `json:"status"`
	ReminderSent bool    `json:"reminderSent"`

	// Данные слота, если он найден
	Date      string `json:"date,omitempty"`      // "2025-10-15"
	StartTime string `json:"startTime,omitempty"` // "10:00"
	EndTime   string `json:"endTime,omitempty"`   // "11:00"

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppointmentListResponse ответ со списком записей
type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// Методы конвертации

// FromDomainAppointment конвертирует domain модель в DTO
// slot может быть nil
func FromDomainAppointment(a *domain.Appointment, slot *domain.TimeSlot) *AppointmentResponse {
	if a == nil {
		return nil
	}

	resp := &AppointmentResponse{
		ID:           a.ID.String(),
		TimeSlotID:   a.TimeSlotID.String(),
		ClientEmail:  a.ClientEmail,
		ClientName:   a.ClientName,
		ClientPhone:  a.ClientPhone,
		Service:      a.Service,
		Notes:        a.Notes,
		Status:       string(a.Status),
		ReminderSent: a.ReminderSent,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}

	if a.OrderID != nil {
		orderID := a.OrderID.String()
		resp.OrderID = &orderID
	}

	if slot != nil {
		resp.Date = slot.Date.Format(domain.DateFormat)
		resp.StartTime = slot.StartTime.String()
		resp.EndTime = slot.EndTime.String()
	}

	return resp
}

// ToDomainAppointmentStatus конвертирует строку в domain.AppointmentStatus с валидацией
func ToDomainAppointmentStatus(status string) (domain.AppointmentStatus, error) {
	s := domain.AppointmentStatus(status)
	if !s.IsValid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}
