package generate_slots

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// UseCase use case для генерации слотов по рабочим часам
type UseCase struct {
	slotRepo SlotRepository
	config   domain.SlotsConfig
	metrics  MetricsCollector
	logger   Logger
}

// NewUseCase создает новый экземпляр use case
// metrics может быть nil
func NewUseCase(slotRepo SlotRepository, config domain.SlotsConfig, metrics MetricsCollector, logger Logger) *UseCase {
	return &UseCase{
		slotRepo: slotRepo,
		config:   config,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute генерирует слоты на каждую дату периода
//
// Даты, на которые слоты уже есть, не трогаются: существующие слоты
// возвращаются без изменений. Ошибка сохранения одного слота не прерывает
// генерацию: она логируется, а в ответ попадают только сохраненные слоты.
// Слот, созданный параллельным вызовом, возвращается как существующий.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	duration := uc.config.SlotDurationMinutes
	if req != nil && req.SlotDurationMinutes != 0 {
		duration = req.SlotDurationMinutes
	}

	if err := validateRequest(req, duration); err != nil {
		uc.logger.Warn("GenerateSlots: validation failed: %v", err)
		return nil, err
	}

	starts, err := uc.slotStarts(duration)
	if err != nil {
		uc.logger.Error("GenerateSlots: invalid working hours %s-%s: %v",
			uc.config.WorkingHoursStart, uc.config.WorkingHoursEnd, err)
		return nil, fmt.Errorf("%w: working hours: %v", ErrInvalidInput, err)
	}

	start := domain.DateOnly(req.StartDate)
	end := domain.DateOnly(req.EndDate)

	uc.logger.Info("GenerateSlots: from=%s, to=%s, duration=%d, slots_per_day=%d",
		start.Format(domain.DateFormat), end.Format(domain.DateFormat), duration, len(starts))

	resp := &Response{Slots: make([]*domain.TimeSlot, 0)}

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			uc.logger.Warn("GenerateSlots: interrupted at %s: %v", date.Format(domain.DateFormat), err)
			break
		}
		uc.generateForDate(ctx, date, starts, duration, resp)
	}

	if uc.metrics != nil {
		uc.metrics.ObserveSlotsGenerated(resp.Created)
	}

	uc.logger.Info("GenerateSlots: done, created=%d, existing=%d, failed=%d",
		resp.Created, resp.Existing, resp.Failed)

	return resp, nil
}

func (uc *UseCase) generateForDate(ctx context.Context, date time.Time, starts []types.TimeString, duration int, resp *Response) {
	day := date.Format(domain.DateFormat)

	existing, err := uc.slotRepo.ListByDate(ctx, date)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to list slots for date=%s: %v", day, err)
		resp.Failed += len(starts)
		return
	}

	// Дата уже сгенерирована - возвращаем как есть
	if len(existing) > 0 {
		uc.logger.Info("GenerateSlots: date=%s already has %d slots, skipping", day, len(existing))
		resp.Slots = append(resp.Slots, existing...)
		resp.Existing += len(existing)
		return
	}

	// Слоты, созданные параллельной генерацией, перечитываются после цикла
	duplicates := make(map[types.TimeString]struct{})
	from := len(resp.Slots)

	for _, startTime := range starts {
		// Конец уже проверен в slotStarts
		endTime, _ := startTime.AddMinutes(duration)

		slot := &domain.TimeSlot{
			Date:            date,
			StartTime:       startTime,
			EndTime:         endTime,
			MaxCapacity:     uc.config.DefaultMaxCapacity,
			CurrentBookings: 0,
		}

		created, err := uc.slotRepo.Create(ctx, slot)
		if err != nil {
			if errors.Is(err, slotRepo.ErrDuplicateSlot) {
				uc.logger.Warn("GenerateSlots: slot date=%s start=%s created concurrently: %v", day, startTime, err)
				duplicates[startTime] = struct{}{}
				continue
			}
			uc.logger.Error("GenerateSlots: failed to create slot date=%s start=%s: %v", day, startTime, err)
			resp.Failed++
			continue
		}

		resp.Slots = append(resp.Slots, created)
		resp.Created++
	}

	if len(duplicates) > 0 {
		uc.collectDuplicates(ctx, date, duplicates, resp)

		daySlots := resp.Slots[from:]
		sort.Slice(daySlots, func(i, j int) bool {
			return daySlots[i].StartTime < daySlots[j].StartTime
		})
	}
}

// collectDuplicates добавляет в ответ слоты, которые успела создать параллельная генерация
func (uc *UseCase) collectDuplicates(ctx context.Context, date time.Time, duplicates map[types.TimeString]struct{}, resp *Response) {
	day := date.Format(domain.DateFormat)

	stored, err := uc.slotRepo.ListByDate(ctx, date)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to reread slots for date=%s: %v", day, err)
		resp.Failed += len(duplicates)
		return
	}

	for _, slot := range stored {
		if _, ok := duplicates[slot.StartTime]; !ok {
			continue
		}
		delete(duplicates, slot.StartTime)
		resp.Slots = append(resp.Slots, slot)
		resp.Existing++
	}

	// дубликат, которого нет при повторном чтении
	resp.Failed += len(duplicates)
}

// slotStarts возвращает времена начала слотов в рабочем дне
// Слот включается, только если его конец не позже конца рабочего дня
func (uc *UseCase) slotStarts(duration int) ([]types.TimeString, error) {
	dayStart, err := uc.config.WorkingHoursStart.Minutes()
	if err != nil {
		return nil, err
	}
	dayEnd, err := uc.config.WorkingHoursEnd.Minutes()
	if err != nil {
		return nil, err
	}

	starts := make([]types.TimeString, 0)
	for m := dayStart; m+duration <= dayEnd; m += duration {
		ts, err := uc.config.WorkingHoursStart.AddMinutes(m - dayStart)
		if err != nil {
			return nil, err
		}
		starts = append(starts, ts)
	}

	return starts, nil
}
