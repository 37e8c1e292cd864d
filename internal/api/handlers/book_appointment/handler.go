package book_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	bookAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidID           = "некорректный формат идентификатора"
	msgInvalidData         = "некорректные данные записи"
	msgSlotNotFound        = "временной слот не найден"
	msgCapacityExceeded    = "в выбранном слоте нет свободных мест"
	msgCompensationFailure = "запись не выполнена, данные переданы на сверку"
)

type Handler struct {
	useCase BookAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase BookAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req BookAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: %v", err)
		handlers.RespondBadRequest(w, msgInvalidID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, bookAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid data: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		case errors.Is(err, bookAppointment.ErrSlotNotFound):
			h.logger.Warn("POST /appointments - Slot not found: time_slot_id=%s", req.TimeSlotID)
			handlers.RespondNotFound(w, msgSlotNotFound)

		case errors.Is(err, bookAppointment.ErrCapacityExceeded):
			h.logger.Warn("POST /appointments - Capacity exceeded: time_slot_id=%s", req.TimeSlotID)
			handlers.RespondConflict(w, msgCapacityExceeded)

		case errors.Is(err, bookAppointment.ErrCompensationFailure):
			h.logger.Error("POST /appointments - Compensation failed: time_slot_id=%s, error=%v", req.TimeSlotID, err)
			handlers.RespondError(w, http.StatusInternalServerError, msgCompensationFailure)

		default:
			h.logger.Error("POST /appointments - Failed to book appointment: time_slot_id=%s, error=%v", req.TimeSlotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments - Appointment booked: appointment_id=%s, time_slot_id=%s",
		result.Appointment.ID, result.Slot.ID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
