package list_appointments

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// ToServiceRequest формирует запрос к сервису из query параметров
// Параметры: status, reminderSent, timeSlotId, dateFrom, dateTo, limit, offset
func ToServiceRequest(query url.Values) (*models.ListAppointmentsRequest, error) {
	req := &models.ListAppointmentsRequest{}

	if status := query.Get("status"); status != "" {
		req.Status = &status
	}

	if raw := query.Get("reminderSent"); raw != "" {
		sent, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid reminderSent value: %w", err)
		}
		req.ReminderSent = &sent
	}

	if raw := query.Get("timeSlotId"); raw != "" {
		slotID, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid timeSlotId value: %w", err)
		}
		req.TimeSlotID = &slotID
	}

	var err error
	if req.DateFrom, err = parseDate(query.Get("dateFrom")); err != nil {
		return nil, fmt.Errorf("invalid dateFrom value: %w", err)
	}
	if req.DateTo, err = parseDate(query.Get("dateTo")); err != nil {
		return nil, fmt.Errorf("invalid dateTo value: %w", err)
	}

	if raw := query.Get("limit"); raw != "" {
		if req.Limit, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("invalid limit value: %w", err)
		}
	}
	if raw := query.Get("offset"); raw != "" {
		if req.Offset, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("invalid offset value: %w", err)
		}
	}

	return req, nil
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	date, err := time.Parse(domain.DateFormat, raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}
