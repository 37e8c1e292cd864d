package cancel_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
)

// UseCase use case для отмены записи
type UseCase struct {
	slotRepo        SlotRepository
	appointmentRepo AppointmentRepository
	reporter        IntegrityReporter
	metrics         MetricsCollector
	timeProvider    TimeProvider
	logger          Logger
	policy          retry.Policy
}

// NewUseCase создает новый экземпляр use case
// policy задает повторы освобождения места; нулевая политика заменяется на retry.DefaultPolicy
func NewUseCase(
	slotRepo SlotRepository,
	appointmentRepo AppointmentRepository,
	reporter IntegrityReporter,
	metrics MetricsCollector,
	logger Logger,
	policy retry.Policy,
) *UseCase {
	if policy.MaxTries == 0 {
		policy = retry.DefaultPolicy()
	}
	return &UseCase{
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		reporter:        reporter,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		policy:          policy,
	}
}

// Execute отменяет запись и освобождает место в слоте
//
// Возвращает true, только если статус обновлен и место освобождено.
// Повторная отмена - no-op: (false, nil). Отсутствующая запись: (false, ErrAppointmentNotFound).
// Если место освободить не удалось, запись остается отмененной, нарушение
// передается в IntegrityReporter, возвращается ErrCapacityNotReleased.
func (uc *UseCase) Execute(ctx context.Context, id uuid.UUID) (bool, error) {
	uc.logger.Info("CancelAppointment: id=%s", id)

	// 1. Получаем запись
	appt, err := uc.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("CancelAppointment: appointment id=%s not found", id)
			uc.observe(resultNotFound)
			return false, ErrAppointmentNotFound
		}
		uc.logger.Error("CancelAppointment: failed to get appointment id=%s: %v", id, err)
		uc.observe(resultError)
		return false, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	if appt.IsCancelled() {
		uc.logger.Info("CancelAppointment: appointment id=%s already cancelled", id)
		uc.observe(resultAlreadyCancelled)
		return false, nil
	}

	// 2. Помечаем запись отмененной; место освобождает только вызов, выполнивший переход
	won, err := uc.appointmentRepo.CancelIfConfirmed(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("CancelAppointment: appointment id=%s disappeared before cancel", id)
			uc.observe(resultNotFound)
			return false, ErrAppointmentNotFound
		}
		uc.logger.Error("CancelAppointment: failed to update status for appointment id=%s: %v", id, err)
		uc.observe(resultError)
		return false, fmt.Errorf("%w: failed to update status: %v", ErrInternal, err)
	}
	if !won {
		uc.logger.Info("CancelAppointment: appointment id=%s cancelled by concurrent request", id)
		uc.observe(resultAlreadyCancelled)
		return false, nil
	}

	// 3. Освобождаем место; счетчик не опускается ниже нуля
	if err := uc.releaseCapacity(ctx, appt); err != nil {
		uc.observe(resultNotReleased)
		return false, err
	}

	uc.logger.Info("CancelAppointment: appointment id=%s cancelled, slot id=%s released", id, appt.TimeSlotID)
	uc.observe(resultCancelled)

	return true, nil
}

// releaseCapacity освобождает место с повторами
// Запись уже отменена, поэтому неудача здесь - нарушение целостности
func (uc *UseCase) releaseCapacity(ctx context.Context, appt *domain.Appointment) error {
	ctx = context.WithoutCancel(ctx)

	released, err := retry.Do(ctx, uc.policy, func(ctx context.Context) (bool, error) {
		ok, err := uc.slotRepo.DecrementBookingsFloored(ctx, appt.TimeSlotID)
		if err != nil {
			uc.logger.Warn("CancelAppointment: release attempt for slot id=%s failed: %v", appt.TimeSlotID, err)
		}
		return ok, err
	})
	if err == nil && released {
		return nil
	}

	reason := "slot not found"
	if err != nil {
		reason = err.Error()
	}

	uc.logger.Error("CancelAppointment: INTEGRITY capacity not released for appointment id=%s slot id=%s: %s",
		appt.ID, appt.TimeSlotID, reason)
	uc.reporter.Report(ctx, domain.Inconsistency{
		Kind:          domain.InconsistencyCapacityNotReleased,
		AppointmentID: appt.ID,
		TimeSlotID:    appt.TimeSlotID,
		Reason:        reason,
		DetectedAt:    uc.timeProvider.Now(),
	})

	return fmt.Errorf("%w: appointment id=%s: %s", ErrCapacityNotReleased, appt.ID, reason)
}

func (uc *UseCase) observe(result string) {
	if uc.metrics != nil {
		uc.metrics.ObserveCancellation(result)
	}
}
