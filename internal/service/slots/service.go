package slots

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/service/slots/models"
)

// Service сервис для чтения слотов
type Service struct {
	slotRepo SlotRepository
	logger   Logger
}

// NewService создает новый экземпляр сервиса слотов
func NewService(slotRepo SlotRepository, logger Logger) *Service {
	return &Service{
		slotRepo: slotRepo,
		logger:   logger,
	}
}

// GetByDate возвращает все слоты на дату с количеством свободных мест
// Заполненные слоты тоже возвращаются, с isAvailable=false
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*models.SlotListResponse, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	day := date.Format(domain.DateFormat)
	s.logger.Info("GetByDate: fetching slots for date=%s", day)

	slots, err := s.slotRepo.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("GetByDate: repository error for date=%s: %v", day, err)
		return nil, fmt.Errorf("%w: GetByDate - repository error: %v", ErrInternal, err)
	}

	resp := models.FromDomainSlotList(slots)
	resp.Date = day

	available := 0
	for _, slot := range resp.Slots {
		if slot.IsAvailable {
			available++
		}
	}
	s.logger.Info("GetByDate: date=%s, %d slots, %d available", day, len(resp.Slots), available)

	return resp, nil
}
