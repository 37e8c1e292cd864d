package send_reminder

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/internal/worker/reminder"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgNotFound             = "запись не найдена"
	msgCancelled            = "запись отменена"
	msgAlreadySent          = "напоминание уже отправлено"
	msgInProgress           = "напоминание уже отправляется"
	msgNotifierFailure      = "не удалось доставить напоминание"
)

type Handler struct {
	sender ReminderSender
	logger Logger
}

func NewHandler(sender ReminderSender, logger Logger) *Handler {
	return &Handler{
		sender: sender,
		logger: logger,
	}
}

// Handle POST /api/v1/appointments/{appointmentId}/send-reminder
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	appointmentID, err := uuid.Parse(mux.Vars(r)["appointmentId"])
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/send-reminder - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	appt, err := h.sender.SendNow(r.Context(), appointmentID)
	if err != nil {
		switch {
		case errors.Is(err, reminder.ErrAppointmentNotFound):
			h.logger.Warn("POST /appointments/{id}/send-reminder - Appointment not found: appointment_id=%s", appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, reminder.ErrAppointmentCancelled):
			h.logger.Warn("POST /appointments/{id}/send-reminder - Appointment cancelled: appointment_id=%s", appointmentID)
			handlers.RespondConflict(w, msgCancelled)

		case errors.Is(err, reminder.ErrAlreadySent):
			h.logger.Warn("POST /appointments/{id}/send-reminder - Already sent: appointment_id=%s", appointmentID)
			handlers.RespondConflict(w, msgAlreadySent)

		case errors.Is(err, reminder.ErrInProgress):
			h.logger.Warn("POST /appointments/{id}/send-reminder - In progress: appointment_id=%s", appointmentID)
			handlers.RespondConflict(w, msgInProgress)

		case errors.Is(err, reminder.ErrNotifierFailure):
			h.logger.Error("POST /appointments/{id}/send-reminder - Notifier failed: appointment_id=%s, error=%v", appointmentID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgNotifierFailure)

		default:
			h.logger.Error("POST /appointments/{id}/send-reminder - Failed to send reminder: appointment_id=%s, error=%v",
				appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments/{id}/send-reminder - Reminder sent: appointment_id=%s", appointmentID)
	handlers.RespondJSON(w, http.StatusOK, models.FromDomainAppointment(appt, nil))
}
