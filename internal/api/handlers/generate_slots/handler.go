package generate_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	generateSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/generate_slots"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidDuration    = "длительность слота должна быть от 15 до 240 минут"
	msgInvalidDateRange   = "дата окончания раньше даты начала"
	msgDateRangeTooLong   = "слишком длинный период генерации"
	msgInvalidData        = "некорректные данные запроса"
)

type Handler struct {
	useCase GenerateSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GenerateSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/slots/generate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req GenerateSlotsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /slots/generate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /slots/generate - Invalid date format: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, generateSlots.ErrInvalidDuration):
			h.logger.Warn("POST /slots/generate - Invalid duration: %d", req.SlotDurationMinutes)
			handlers.RespondBadRequest(w, msgInvalidDuration)

		case errors.Is(err, generateSlots.ErrInvalidDateRange):
			h.logger.Warn("POST /slots/generate - Invalid date range: %s..%s", req.StartDate, req.EndDate)
			handlers.RespondBadRequest(w, msgInvalidDateRange)

		case errors.Is(err, generateSlots.ErrDateRangeTooLong):
			h.logger.Warn("POST /slots/generate - Date range too long: %s..%s", req.StartDate, req.EndDate)
			handlers.RespondBadRequest(w, msgDateRangeTooLong)

		case errors.Is(err, generateSlots.ErrInvalidInput):
			h.logger.Warn("POST /slots/generate - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidData)

		default:
			h.logger.Error("POST /slots/generate - Failed to generate slots: error=%v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /slots/generate - Slots generated: from=%s, to=%s, created=%d, existing=%d, failed=%d",
		req.StartDate, req.EndDate, result.Created, result.Existing, result.Failed)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
