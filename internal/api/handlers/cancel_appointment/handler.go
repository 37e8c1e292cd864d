package cancel_appointment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	cancelAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgNotFound             = "запись не найдена"
	msgCapacityNotReleased  = "запись отменена, место в слоте не освобождено, данные переданы на сверку"
)

// CancelAppointmentResponse HTTP response model
// Cancelled = false, если запись уже была отменена ранее
type CancelAppointmentResponse struct {
	ID        string `json:"id"`
	Cancelled bool   `json:"cancelled"`
}

type Handler struct {
	useCase CancelAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CancelAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle DELETE /api/v1/appointments/{appointmentId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		h.logger.Warn("DELETE /appointments/{id} - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	cancelled, err := h.useCase.Execute(r.Context(), appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, cancelAppointment.ErrAppointmentNotFound):
			h.logger.Warn("DELETE /appointments/{id} - Appointment not found: appointment_id=%s", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelAppointment.ErrCapacityNotReleased):
			h.logger.Error("DELETE /appointments/{id} - Capacity not released: appointment_id=%s, error=%v", appointmentID, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgCapacityNotReleased)

		default:
			h.logger.Error("DELETE /appointments/{id} - Failed to cancel appointment: appointment_id=%s, error=%v",
				appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /appointments/{id} - Cancel processed: appointment_id=%s, cancelled=%t", appointmentID, cancelled)
	handlers.RespondJSON(w, http.StatusOK, CancelAppointmentResponse{
		ID:        appointmentID.String(),
		Cancelled: cancelled,
	})
}
