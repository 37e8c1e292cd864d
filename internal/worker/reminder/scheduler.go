package reminder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
)

const (
	claimPrefix        = "reminder:"
	defaultSendTimeout = 30 * time.Second
)

// Scheduler фоновая рассылка напоминаний о записях
//
// Тики не пересекаются: следующий тик планируется только после завершения
// предыдущего. Признак reminderSent выставляется только после успешной
// отправки, а захват через Claimer не дает двум обработчикам отправить одно
// напоминание одновременно.
type Scheduler struct {
	appointmentRepo AppointmentRepository
	slotRepo        SlotRepository
	notifier        Notifier
	claimer         Claimer
	reporter        IntegrityReporter
	metrics         MetricsCollector
	timeProvider    TimeProvider
	logger          Logger
	cfg             Config

	tickMu   sync.Mutex
	running  atomic.Bool
	lastTick atomic.Int64 // unix nano завершения последнего тика
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewScheduler создает планировщик
// metrics может быть nil
func NewScheduler(
	appointmentRepo AppointmentRepository,
	slotRepo SlotRepository,
	notifier Notifier,
	claimer Claimer,
	reporter IntegrityReporter,
	metrics MetricsCollector,
	logger Logger,
	cfg Config,
) *Scheduler {
	return &Scheduler{
		appointmentRepo: appointmentRepo,
		slotRepo:        slotRepo,
		notifier:        notifier,
		claimer:         claimer,
		reporter:        reporter,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		cfg:             cfg.withDefaults(),
		stopCh:          make(chan struct{}),
	}
}

// Run выполняет тики до отмены ctx или вызова Stop
// При выключенной конфигурации возвращается сразу.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("ReminderScheduler: disabled by configuration")
		return
	}
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("ReminderScheduler: already running")
		return
	}
	defer s.running.Store(false)

	s.logger.Info("ReminderScheduler: started, interval=%s, lead=%s, tolerance=%s",
		s.cfg.CheckInterval, s.cfg.LeadTime, s.cfg.Tolerance)

	timer := time.NewTimer(s.cfg.CheckInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ReminderScheduler: context done, exiting")
			return
		case <-s.stopCh:
			s.logger.Info("ReminderScheduler: stopped")
			return
		default:
		}

		if _, err := s.Tick(ctx); err != nil {
			s.logger.Error("ReminderScheduler: tick failed: %v", err)
		}

		// Интервал отсчитывается от конца тика, поэтому долгий тик откладывает следующий
		timer.Reset(s.cfg.CheckInterval)

		select {
		case <-ctx.Done():
			s.logger.Info("ReminderScheduler: context done, exiting")
			return
		case <-s.stopCh:
			s.logger.Info("ReminderScheduler: stopped")
			return
		case <-timer.C:
		}
	}
}

// Stop прерывает ожидание и завершает Run; повторный вызов безопасен
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// Running возвращает true, пока работает Run
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// LastTickAt возвращает время завершения последнего тика (нулевое, если тиков не было)
func (s *Scheduler) LastTickAt() time.Time {
	ns := s.lastTick.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// WindowAt возвращает окно напоминаний для момента now
func (s *Scheduler) WindowAt(now time.Time) Window {
	target := now.Add(s.cfg.LeadTime)
	return Window{
		Start: target.Add(-s.cfg.Tolerance),
		End:   target.Add(s.cfg.Tolerance),
	}
}

// Tick выполняет один проход: отправляет напоминания по записям, начало
// которых попадает в окно [now+lead-tolerance, now+lead+tolerance]
// Ошибка по одной записи не прерывает обработку остальных. Ошибка
// возвращается, только если не удалось получить список кандидатов.
func (s *Scheduler) Tick(ctx context.Context) (*TickResult, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	started := time.Now()
	defer func() {
		s.lastTick.Store(time.Now().UnixNano())
		if s.metrics != nil {
			s.metrics.ObserveReminderTick(time.Since(started))
		}
	}()

	now := s.timeProvider.Now()
	window := s.WindowAt(now)
	result := &TickResult{Window: window}

	candidates, err := s.fetchCandidates(ctx, window)
	if err != nil {
		return result, fmt.Errorf("%w: fetch candidates: %v", ErrInternal, err)
	}
	result.Candidates = len(candidates)

	slots := make(map[uuid.UUID]*domain.TimeSlot)
	for _, appt := range candidates {
		if ctx.Err() != nil {
			s.logger.Warn("ReminderScheduler: tick interrupted: %v", ctx.Err())
			break
		}

		switch s.processCandidate(ctx, appt, window, slots) {
		case resultSent:
			result.Sent++
		case resultFailed, resultUnmarked:
			result.Failed++
		default:
			result.Skipped++
		}
	}

	if result.Candidates > 0 {
		s.logger.Info("ReminderScheduler: tick window=[%s, %s], candidates=%d, sent=%d, failed=%d, skipped=%d",
			window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339),
			result.Candidates, result.Sent, result.Failed, result.Skipped)
	}

	return result, nil
}

// fetchCandidates выбирает все подтвержденные записи без напоминания на даты окна
// Страницы читаются до обработки, потому что обработка меняет reminderSent и
// сдвигала бы смещение.
func (s *Scheduler) fetchCandidates(ctx context.Context, window Window) ([]*domain.Appointment, error) {
	confirmed := domain.StatusConfirmed
	notSent := false
	from := domain.DateOnly(window.Start.In(s.cfg.Location))
	to := domain.DateOnly(window.End.In(s.cfg.Location))

	filter := domain.AppointmentsFilter{
		Status:       &confirmed,
		ReminderSent: &notSent,
		SlotDateFrom: &from,
		SlotDateTo:   &to,
		Limit:        s.cfg.BatchSize,
	}

	all := make([]*domain.Appointment, 0)
	for {
		page, err := s.appointmentRepo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < filter.Limit {
			return all, nil
		}
		filter.Offset += filter.Limit
	}
}

func (s *Scheduler) processCandidate(ctx context.Context, appt *domain.Appointment, window Window, slots map[uuid.UUID]*domain.TimeSlot) string {
	slot, ok := slots[appt.TimeSlotID]
	if !ok {
		var err error
		slot, err = s.slotRepo.GetByID(ctx, appt.TimeSlotID)
		if err != nil {
			s.logger.Error("ReminderScheduler: failed to get slot id=%s for appointment id=%s: %v",
				appt.TimeSlotID, appt.ID, err)
			s.observe(resultFailed)
			return resultFailed
		}
		slots[appt.TimeSlotID] = slot
	}

	startsAt, err := slot.StartsAt(s.cfg.Location)
	if err != nil {
		s.logger.Error("ReminderScheduler: invalid start time %q in slot id=%s: %v", slot.StartTime, slot.ID, err)
		s.observe(resultFailed)
		return resultFailed
	}

	if !window.Contains(startsAt) {
		return resultSkipped
	}

	outcome, err := s.deliver(ctx, appt.ID, slot)
	if err != nil {
		switch {
		case errors.Is(err, ErrInProgress), errors.Is(err, ErrAlreadySent), errors.Is(err, ErrAppointmentCancelled),
			errors.Is(err, ErrAppointmentNotFound):
			s.logger.Info("ReminderScheduler: appointment id=%s skipped: %v", appt.ID, err)
		default:
			s.logger.Warn("ReminderScheduler: appointment id=%s: %v", appt.ID, err)
		}
	}
	return outcome
}

// SendNow отправляет напоминание по записи немедленно, без учета окна
// Действуют те же гарантии, что и для тика: уже отправленное напоминание
// не отправляется повторно.
func (s *Scheduler) SendNow(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	s.logger.Info("SendReminder: manual reminder for appointment id=%s", id)

	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("SendReminder: failed to get appointment id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	slot, err := s.slotRepo.GetByID(ctx, appt.TimeSlotID)
	if err != nil {
		s.logger.Error("SendReminder: failed to get slot id=%s: %v", appt.TimeSlotID, err)
		return nil, fmt.Errorf("%w: failed to get slot: %v", ErrInternal, err)
	}

	if _, err := s.deliver(ctx, id, slot); err != nil {
		return nil, err
	}

	updated, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		// Напоминание отправлено; возвращаем то, что знаем
		sent := true
		domain.AppointmentPatch{ReminderSent: &sent}.Apply(appt)
		return appt, nil
	}
	return updated, nil
}

// deliver захватывает запись, перечитывает ее, отправляет напоминание и
// выставляет reminderSent. Возвращает исход для метрик и ошибку для вызывающего.
func (s *Scheduler) deliver(ctx context.Context, id uuid.UUID, slot *domain.TimeSlot) (string, error) {
	key := claimPrefix + id.String()

	claimed, err := s.claimer.Claim(ctx, key)
	if err != nil {
		s.observe(resultFailed)
		return resultFailed, fmt.Errorf("%w: claim: %v", ErrInternal, err)
	}
	if !claimed {
		s.observe(resultSkipped)
		return resultSkipped, ErrInProgress
	}

	release := true
	defer func() {
		if !release {
			return
		}
		if err := s.claimer.Release(context.WithoutCancel(ctx), key); err != nil {
			s.logger.Warn("ReminderScheduler: failed to release claim for appointment id=%s: %v", id, err)
		}
	}()

	// Перечитываем под захватом: запись могли отменить или уже напомнить
	appt, err := s.appointmentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
			s.observe(resultSkipped)
			return resultSkipped, ErrAppointmentNotFound
		}
		s.observe(resultFailed)
		return resultFailed, fmt.Errorf("%w: reload appointment: %v", ErrInternal, err)
	}
	if appt.IsCancelled() {
		s.observe(resultSkipped)
		return resultSkipped, ErrAppointmentCancelled
	}
	if appt.ReminderSent {
		s.observe(resultSkipped)
		return resultSkipped, ErrAlreadySent
	}

	// Отправка ограничена таймаутом меньше TTL захвата
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
	err = s.notifier.SendReminder(sendCtx, appt, slot)
	cancel()
	if err != nil {
		s.observe(resultFailed)
		return resultFailed, fmt.Errorf("%w: %v", ErrNotifierFailure, err)
	}

	sent := true
	if _, err := s.appointmentRepo.Update(ctx, id, domain.AppointmentPatch{ReminderSent: &sent}); err != nil {
		// Захват остается до истечения TTL, чтобы не отправить повторно
		release = false
		s.logger.Error("ReminderScheduler: INTEGRITY reminder sent but not marked for appointment id=%s: %v", id, err)
		s.reporter.Report(ctx, domain.Inconsistency{
			Kind:          domain.InconsistencyReminderNotMarked,
			AppointmentID: id,
			TimeSlotID:    appt.TimeSlotID,
			Reason:        err.Error(),
			DetectedAt:    s.timeProvider.Now(),
		})
		s.observe(resultUnmarked)
		return resultUnmarked, fmt.Errorf("%w: mark reminder sent: %v", ErrInternal, err)
	}

	s.logger.Info("ReminderScheduler: reminder sent for appointment id=%s (%s %s) to %s",
		id, slot.Date.Format(domain.DateFormat), slot.StartTime, appt.ClientEmail)
	s.observe(resultSent)
	return resultSent, nil
}

func (s *Scheduler) observe(result string) {
	if s.metrics != nil {
		s.metrics.ObserveReminder(result)
	}
}
