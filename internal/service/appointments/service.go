package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// Service сервис для чтения записей
type Service struct {
	appointmentRepo AppointmentRepository
	slotRepo        SlotRepository
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(appointmentRepo AppointmentRepository, slotRepo SlotRepository, logger Logger) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		slotRepo:        slotRepo,
		logger:          logger,
	}
}

// GetByID получает запись по ID вместе с датой и временем слота
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%s", id)

	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%s not found", id)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByID: repository error for appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	cache := make(map[uuid.UUID]*domain.TimeSlot)
	return models.FromDomainAppointment(appt, s.slotFor(ctx, appt, cache)), nil
}

// List получает записи по фильтру
// Лимит по умолчанию domain.DefaultListLimit, максимум domain.MaxListLimit
func (s *Service) List(ctx context.Context, req *models.ListAppointmentsRequest) (*models.AppointmentListResponse, error) {
	if req == nil {
		req = &models.ListAppointmentsRequest{}
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid status=%v", req.Status)
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if filter.Limit == 0 {
		filter.Limit = domain.DefaultListLimit
	}
	if filter.Limit < 1 || filter.Limit > domain.MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be in 1..%d", ErrInvalidInput, domain.MaxListLimit)
	}
	if filter.Offset < 0 {
		return nil, fmt.Errorf("%w: offset must not be negative", ErrInvalidInput)
	}
	if filter.SlotDateFrom != nil && filter.SlotDateTo != nil && filter.SlotDateTo.Before(*filter.SlotDateFrom) {
		return nil, fmt.Errorf("%w: dateTo is before dateFrom", ErrInvalidInput)
	}

	s.logger.Info("List: fetching appointments, limit=%d, offset=%d", filter.Limit, filter.Offset)

	list, err := s.appointmentRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	resp := &models.AppointmentListResponse{
		Appointments: make([]models.AppointmentResponse, 0, len(list)),
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}

	cache := make(map[uuid.UUID]*domain.TimeSlot)
	for _, appt := range list {
		resp.Appointments = append(resp.Appointments, *models.FromDomainAppointment(appt, s.slotFor(ctx, appt, cache)))
	}

	s.logger.Info("List: successfully fetched %d appointments", len(resp.Appointments))
	return resp, nil
}

// slotFor возвращает слот записи; ошибка чтения слота не скрывает саму запись
func (s *Service) slotFor(ctx context.Context, appt *domain.Appointment, cache map[uuid.UUID]*domain.TimeSlot) *domain.TimeSlot {
	if slot, ok := cache[appt.TimeSlotID]; ok {
		return slot
	}

	slot, err := s.slotRepo.GetByID(ctx, appt.TimeSlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("slotFor: slot id=%s of appointment id=%s not found", appt.TimeSlotID, appt.ID)
		} else {
			s.logger.Error("slotFor: failed to get slot id=%s: %v", appt.TimeSlotID, err)
		}
	}

	cache[appt.TimeSlotID] = slot
	return slot
}
