package generate_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/slots/models"
	generateSlots "github.com/m04kA/SMC-AppointmentService/internal/usecase/generate_slots"
)

// GenerateSlotsRequest HTTP request model
type GenerateSlotsRequest struct {
	StartDate           string `json:"startDate"`                     // "2025-10-15"
	EndDate             string `json:"endDate"`                       // "2025-10-21"
	SlotDurationMinutes int    `json:"slotDurationMinutes,omitempty"` // По умолчанию из конфигурации
}

// GenerateSlotsResponse HTTP response model
type GenerateSlotsResponse struct {
	Created  int                   `json:"created"`
	Existing int                   `json:"existing"`
	Failed   int                   `json:"failed"`
	Slots    []models.SlotResponse `json:"slots"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *GenerateSlotsRequest) ToUseCaseRequest() (*generateSlots.Request, error) {
	startDate, err := time.Parse(domain.DateFormat, r.StartDate)
	if err != nil {
		return nil, err
	}

	endDate, err := time.Parse(domain.DateFormat, r.EndDate)
	if err != nil {
		return nil, err
	}

	return &generateSlots.Request{
		StartDate:           startDate,
		EndDate:             endDate,
		SlotDurationMinutes: r.SlotDurationMinutes,
	}, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *generateSlots.Response) *GenerateSlotsResponse {
	return &GenerateSlotsResponse{
		Created:  resp.Created,
		Existing: resp.Existing,
		Failed:   resp.Failed,
		Slots:    models.FromDomainSlotList(resp.Slots).Slots,
	}
}
