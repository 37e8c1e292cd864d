package generate_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

var testConfig = domain.SlotsConfig{
	WorkingHoursStart:   "09:00",
	WorkingHoursEnd:     "18:00",
	SlotDurationMinutes: 60,
	DefaultMaxCapacity:  5,
}

// failingSlotRepo отказывает в сохранении слотов с указанным временем начала
type failingSlotRepo struct {
	*memory.SlotRepository
	failAt types.TimeString
}

func (r *failingSlotRepo) Create(ctx context.Context, slot *domain.TimeSlot) (*domain.TimeSlot, error) {
	if slot.StartTime == r.failAt {
		return nil, errors.New("connection reset by peer")
	}
	return r.SlotRepository.Create(ctx, slot)
}

// racingSlotRepo перед сохранением слота raceAt создает его же от имени параллельной генерации
type racingSlotRepo struct {
	*memory.SlotRepository
	raceAt types.TimeString
	rival  *domain.TimeSlot
}

func (r *racingSlotRepo) Create(ctx context.Context, slot *domain.TimeSlot) (*domain.TimeSlot, error) {
	if slot.StartTime == r.raceAt && r.rival == nil {
		rival := *slot
		created, err := r.SlotRepository.Create(ctx, &rival)
		if err != nil {
			return nil, err
		}
		r.rival = created
	}
	return r.SlotRepository.Create(ctx, slot)
}

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func startTimes(slots []*domain.TimeSlot) []types.TimeString {
	out := make([]types.TimeString, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.StartTime)
	}
	return out
}

func TestExecute_WorkingDayHourly(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store.Slots(), testConfig, nil, logger.Nop())

	resp, err := uc.Execute(context.Background(), &Request{StartDate: day(2), EndDate: day(2), SlotDurationMinutes: 60})
	require.NoError(t, err)

	assert.Equal(t, []types.TimeString{
		"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00", "17:00",
	}, startTimes(resp.Slots))
	assert.Equal(t, 9, resp.Created)

	for _, s := range resp.Slots {
		assert.Equal(t, 0, s.CurrentBookings)
		assert.Equal(t, 5, s.MaxCapacity)
		assert.False(t, s.EndTime.IsAfter("18:00"))
	}
}

func TestExecute_TrailingPartialSlotDropped(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store.Slots(), testConfig, nil, logger.Nop())

	resp, err := uc.Execute(context.Background(), &Request{StartDate: day(2), EndDate: day(2), SlotDurationMinutes: 120})
	require.NoError(t, err)

	assert.Equal(t, []types.TimeString{"09:00", "11:00", "13:00", "15:00"}, startTimes(resp.Slots))
	assert.Equal(t, types.TimeString("17:00"), resp.Slots[3].EndTime)
}

func TestExecute_Idempotent(t *testing.T) {
	store := memory.NewStore()
	uc := NewUseCase(store.Slots(), testConfig, nil, logger.Nop())
	req := &Request{StartDate: day(2), EndDate: day(3)}

	first, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, 18, first.Created)

	second, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 18, second.Existing)
	require.Len(t, second.Slots, len(first.Slots))

	firstIDs := make(map[string]bool)
	for _, s := range first.Slots {
		firstIDs[s.ID.String()] = true
	}
	for _, s := range second.Slots {
		assert.True(t, firstIDs[s.ID.String()], "slot %s must be returned unchanged", s.ID)
	}

	stored, err := store.Slots().ListByDate(context.Background(), day(2))
	require.NoError(t, err)
	assert.Len(t, stored, 9)
}

func TestExecute_PartialFailureContinues(t *testing.T) {
	store := memory.NewStore()
	repo := &failingSlotRepo{SlotRepository: store.Slots(), failAt: "12:00"}
	uc := NewUseCase(repo, testConfig, nil, logger.Nop())

	resp, err := uc.Execute(context.Background(), &Request{StartDate: day(2), EndDate: day(3)})
	require.NoError(t, err)

	assert.Equal(t, 16, resp.Created)
	assert.Equal(t, 2, resp.Failed)
	assert.Len(t, resp.Slots, 16)
	assert.NotContains(t, startTimes(resp.Slots), types.TimeString("12:00"))
}

func TestExecute_ConcurrentlyCreatedSlotReturnedAsExisting(t *testing.T) {
	store := memory.NewStore()
	repo := &racingSlotRepo{SlotRepository: store.Slots(), raceAt: "10:00"}
	uc := NewUseCase(repo, testConfig, nil, logger.Nop())

	resp, err := uc.Execute(context.Background(), &Request{StartDate: day(2), EndDate: day(2)})
	require.NoError(t, err)
	require.NotNil(t, repo.rival)

	assert.Equal(t, 8, resp.Created)
	assert.Equal(t, 1, resp.Existing)
	assert.Equal(t, 0, resp.Failed)
	require.Len(t, resp.Slots, 9)
	assert.Contains(t, startTimes(resp.Slots), types.TimeString("10:00"))

	for _, s := range resp.Slots {
		if s.StartTime == "10:00" {
			assert.Equal(t, repo.rival.ID, s.ID)
		}
	}
}

func TestExecute_Validation(t *testing.T) {
	uc := NewUseCase(memory.NewStore().Slots(), testConfig, nil, logger.Nop())

	tests := []struct {
		name    string
		req     *Request
		wantErr error
	}{
		{
			name:    "duration too short",
			req:     &Request{StartDate: day(2), EndDate: day(2), SlotDurationMinutes: 10},
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "duration too long",
			req:     &Request{StartDate: day(2), EndDate: day(2), SlotDurationMinutes: 300},
			wantErr: ErrInvalidDuration,
		},
		{
			name:    "end before start",
			req:     &Request{StartDate: day(3), EndDate: day(2)},
			wantErr: ErrInvalidDateRange,
		},
		{
			name:    "range too long",
			req:     &Request{StartDate: day(1), EndDate: day(1).AddDate(0, 0, domain.MaxGenerationDays)},
			wantErr: ErrDateRangeTooLong,
		},
		{
			name:    "missing dates",
			req:     &Request{},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Execute(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
