package book_appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
)

// UseCase use case для записи клиента в слот
//
// Запись и счетчик слота меняются двумя отдельными операциями хранилища,
// поэтому бронирование выполняется как сага: создать запись, атомарно
// занять место, при неудаче удалить запись.
type UseCase struct {
	slotRepo        SlotRepository
	appointmentRepo AppointmentRepository
	notifier        Notifier
	reporter        IntegrityReporter
	metrics         MetricsCollector
	timeProvider    TimeProvider
	logger          Logger
	opts            Options
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(
	slotRepo SlotRepository,
	appointmentRepo AppointmentRepository,
	notifier Notifier,
	reporter IntegrityReporter,
	metrics MetricsCollector,
	logger Logger,
	opts Options,
) *UseCase {
	if opts.Compensation.MaxTries == 0 {
		opts.Compensation = retry.DefaultPolicy()
	}
	return &UseCase{
		slotRepo:        slotRepo,
		appointmentRepo: appointmentRepo,
		notifier:        notifier,
		reporter:        reporter,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		opts:            opts,
	}
}

// Execute выполняет бронирование
// Возможные ошибки: ErrInvalidInput, ErrSlotNotFound, ErrCapacityExceeded,
// ErrCompensationFailure, ErrInternal
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req, uc.opts.PhoneRegion); err != nil {
		uc.logger.Warn("BookAppointment: validation failed: %v", err)
		uc.observe(resultInvalid)
		return nil, err
	}

	uc.logger.Info("BookAppointment: slot=%s, email=%s, service=%s", req.TimeSlotID, req.ClientEmail, req.Service)

	// 1. Получаем слот
	slot, err := uc.slotRepo.GetByID(ctx, req.TimeSlotID)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			uc.logger.Warn("BookAppointment: slot id=%s not found", req.TimeSlotID)
			uc.observe(resultNotFound)
			return nil, ErrSlotNotFound
		}
		uc.logger.Error("BookAppointment: failed to get slot id=%s: %v", req.TimeSlotID, err)
		uc.observe(resultError)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}

	// 2. Быстрая проверка емкости; окончательная проверка - атомарный инкремент в шаге 4
	if slot.IsFull() {
		uc.logger.Warn("BookAppointment: slot id=%s is full, %d/%d spots taken",
			slot.ID, slot.CurrentBookings, slot.MaxCapacity)
		uc.observe(resultCapacityExceeded)
		return nil, ErrCapacityExceeded
	}

	// 3. Создаем подтвержденную запись
	appt, err := uc.appointmentRepo.Create(ctx, &domain.Appointment{
		OrderID:      req.OrderID,
		TimeSlotID:   slot.ID,
		ClientEmail:  req.ClientEmail,
		ClientName:   req.ClientName,
		ClientPhone:  req.ClientPhone,
		Service:      req.Service,
		Notes:        req.Notes,
		Status:       domain.StatusConfirmed,
		ReminderSent: false,
	})
	if err != nil {
		uc.logger.Error("BookAppointment: failed to create appointment for slot id=%s: %v", slot.ID, err)
		uc.observe(resultError)
		return nil, fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
	}

	// 4. Атомарно занимаем место (только если current_bookings < max_capacity)
	reserved, incErr := uc.slotRepo.IncrementBookingsIfAvailable(ctx, slot.ID)
	if incErr != nil || !reserved {
		if incErr != nil {
			uc.logger.Error("BookAppointment: failed to reserve capacity in slot id=%s for appointment id=%s: %v",
				slot.ID, appt.ID, incErr)
		} else {
			uc.logger.Warn("BookAppointment: slot id=%s filled concurrently, rolling back appointment id=%s",
				slot.ID, appt.ID)
		}

		// 5. Компенсация: удаляем созданную запись
		if err := uc.compensate(ctx, appt); err != nil {
			uc.observe(resultCompensationFailure)
			return nil, err
		}

		if incErr != nil {
			uc.observe(resultError)
			return nil, fmt.Errorf("%w: failed to reserve capacity: %v", ErrInternal, incErr)
		}
		uc.observe(resultCapacityExceeded)
		return nil, ErrCapacityExceeded
	}

	slot.CurrentBookings++

	uc.logger.Info("BookAppointment: appointment id=%s booked in slot id=%s (%s %s), %d/%d spots taken",
		appt.ID, slot.ID, slot.Date.Format(domain.DateFormat), slot.StartTime, slot.CurrentBookings, slot.MaxCapacity)
	uc.observe(resultSuccess)

	// 6. Подтверждение клиенту; ошибка не отменяет бронирование
	uc.sendConfirmation(ctx, appt, slot)

	return &Response{Appointment: appt, Slot: slot}, nil
}

// compensate удаляет запись, для которой не удалось занять место
// Удаление повторяется по политике opts.Compensation. Если все попытки
// исчерпаны, нарушение передается в IntegrityReporter и возвращается
// ErrCompensationFailure.
func (uc *UseCase) compensate(ctx context.Context, appt *domain.Appointment) error {
	// Откат не прерывается отменой запроса клиента
	ctx = context.WithoutCancel(ctx)

	deleted, err := retry.Do(ctx, uc.opts.Compensation, func(ctx context.Context) (bool, error) {
		ok, err := uc.appointmentRepo.Delete(ctx, appt.ID)
		if err != nil {
			uc.logger.Warn("BookAppointment: compensation attempt for appointment id=%s failed: %v", appt.ID, err)
		}
		return ok, err
	})
	if err != nil {
		uc.logger.Error("BookAppointment: INTEGRITY compensation failed for appointment id=%s slot id=%s: %v",
			appt.ID, appt.TimeSlotID, err)
		uc.reporter.Report(ctx, domain.Inconsistency{
			Kind:          domain.InconsistencyCompensationFailed,
			AppointmentID: appt.ID,
			TimeSlotID:    appt.TimeSlotID,
			Reason:        err.Error(),
			DetectedAt:    uc.timeProvider.Now(),
		})
		return fmt.Errorf("%w: appointment id=%s: %v", ErrCompensationFailure, appt.ID, err)
	}

	if !deleted {
		uc.logger.Warn("BookAppointment: appointment id=%s already absent during compensation", appt.ID)
		return nil
	}

	uc.logger.Info("BookAppointment: appointment id=%s rolled back", appt.ID)
	return nil
}

func (uc *UseCase) sendConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) {
	notifyCtx := ctx
	if uc.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		notifyCtx, cancel = context.WithTimeout(ctx, uc.opts.NotifyTimeout)
		defer cancel()
	}

	if err := uc.notifier.SendBookingConfirmation(notifyCtx, appt, slot); err != nil {
		uc.logger.Warn("BookAppointment: failed to send confirmation for appointment id=%s to %s: %v",
			appt.ID, appt.ClientEmail, err)
		return
	}

	uc.logger.Info("BookAppointment: confirmation sent for appointment id=%s", appt.ID)
}

func (uc *UseCase) observe(result string) {
	if uc.metrics != nil {
		uc.metrics.ObserveBooking(result)
	}
}
