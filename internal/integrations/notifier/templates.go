package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	templateConfirmation = "confirmation.html"
	templateReminder     = "reminder.html"
)

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// MessageData данные для шаблонов писем
type MessageData struct {
	AppointmentID string
	ClientName    string
	Service       string
	Date          string
	StartTime     string
	EndTime       string
	Notes         string
	StartsAt      time.Time
}

func newMessageData(appt *domain.Appointment, slot *domain.TimeSlot, loc *time.Location) MessageData {
	data := MessageData{
		AppointmentID: appt.ID.String(),
		ClientName:    appt.ClientName,
		Service:       appt.Service,
		Date:          slot.Date.Format(domain.DateFormat),
		StartTime:     slot.StartTime.String(),
		EndTime:       slot.EndTime.String(),
	}
	if appt.Notes != nil {
		data.Notes = *appt.Notes
	}
	if startsAt, err := slot.StartsAt(loc); err == nil {
		data.StartsAt = startsAt
	}
	return data
}

func render(name string, data MessageData) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrTemplate, name, err)
	}
	return buf.String(), nil
}
