package book_appointment

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	bookAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
)

// BookAppointmentRequest HTTP request model
type BookAppointmentRequest struct {
	TimeSlotID  string  `json:"timeSlotId"`
	OrderID     *string `json:"orderId,omitempty"`
	ClientEmail string  `json:"clientEmail"`
	ClientName  string  `json:"clientName"`
	ClientPhone string  `json:"clientPhone"`
	Service     string  `json:"service"`
	Notes       *string `json:"notes,omitempty"`
}

// BookAppointmentResponse HTTP response model
type BookAppointmentResponse struct {
	models.AppointmentResponse
	AvailableSpots int `json:"availableSpots"` // Свободных мест в слоте после записи
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *BookAppointmentRequest) ToUseCaseRequest() (*bookAppointment.Request, error) {
	slotID, err := uuid.Parse(r.TimeSlotID)
	if err != nil {
		return nil, fmt.Errorf("timeSlotId: %w", err)
	}

	req := &bookAppointment.Request{
		TimeSlotID:  slotID,
		ClientEmail: r.ClientEmail,
		ClientName:  r.ClientName,
		ClientPhone: r.ClientPhone,
		Service:     r.Service,
		Notes:       r.Notes,
	}

	if r.OrderID != nil {
		orderID, err := uuid.Parse(*r.OrderID)
		if err != nil {
			return nil, fmt.Errorf("orderId: %w", err)
		}
		req.OrderID = &orderID
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *bookAppointment.Response) *BookAppointmentResponse {
	return &BookAppointmentResponse{
		AppointmentResponse: *models.FromDomainAppointment(resp.Appointment, resp.Slot),
		AvailableSpots:      resp.Slot.AvailableSpots(),
	}
}
