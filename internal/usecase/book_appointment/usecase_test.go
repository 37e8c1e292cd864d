package book_appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendBookingConfirmation(ctx context.Context, appt *domain.Appointment, slot *domain.TimeSlot) error {
	args := m.Called(ctx, appt, slot)
	return args.Error(0)
}

type recordingReporter struct {
	mu      sync.Mutex
	reports []domain.Inconsistency
}

func (r *recordingReporter) Report(ctx context.Context, inc domain.Inconsistency) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, inc)
}

// lostRaceSlotRepo проходит предварительную проверку, но всегда проигрывает атомарный инкремент
type lostRaceSlotRepo struct {
	*memory.SlotRepository
	err error
}

func (r *lostRaceSlotRepo) IncrementBookingsIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	return false, r.err
}

// brokenDeleteRepo не может удалить запись
type brokenDeleteRepo struct {
	*memory.AppointmentRepository
	calls int
}

func (r *brokenDeleteRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.calls++
	return false, errors.New("connection refused")
}

var fastPolicy = retry.Policy{MaxTries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

type fixture struct {
	store    *memory.Store
	notifier *mockNotifier
	reporter *recordingReporter
	slot     *domain.TimeSlot
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	store := memory.NewStore()
	slot, err := store.Slots().Create(context.Background(), &domain.TimeSlot{
		Date:        time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		StartTime:   "09:00",
		EndTime:     "10:00",
		MaxCapacity: capacity,
	})
	require.NoError(t, err)

	notifier := &mockNotifier{}
	notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	return &fixture{store: store, notifier: notifier, reporter: &recordingReporter{}, slot: slot}
}

func (f *fixture) useCase(slots SlotRepository, appts AppointmentRepository) *UseCase {
	if slots == nil {
		slots = f.store.Slots()
	}
	if appts == nil {
		appts = f.store.Appointments()
	}
	return NewUseCase(slots, appts, f.notifier, f.reporter, nil, logger.Nop(), Options{
		PhoneRegion:   "US",
		NotifyTimeout: time.Second,
		Compensation:  fastPolicy,
	})
}

func (f *fixture) request() *Request {
	return &Request{
		TimeSlotID:  f.slot.ID,
		ClientEmail: "jane@example.com",
		ClientName:  "Jane Doe",
		ClientPhone: "(650) 253-0000",
		Service:     "Consultation",
	}
}

func (f *fixture) bookings(t *testing.T) int {
	t.Helper()
	slot, err := f.store.Slots().GetByID(context.Background(), f.slot.ID)
	require.NoError(t, err)
	return slot.CurrentBookings
}

func TestExecute_Success(t *testing.T) {
	f := newFixture(t, 2)
	uc := f.useCase(nil, nil)

	resp, err := uc.Execute(context.Background(), f.request())
	require.NoError(t, err)

	assert.Equal(t, domain.StatusConfirmed, resp.Appointment.Status)
	assert.False(t, resp.Appointment.ReminderSent)
	assert.Equal(t, "+16502530000", resp.Appointment.ClientPhone)
	assert.Equal(t, 1, resp.Slot.CurrentBookings)
	assert.Equal(t, 1, f.bookings(t))
	f.notifier.AssertNumberOfCalls(t, "SendBookingConfirmation", 1)
}

func TestExecute_FillCancelRebook(t *testing.T) {
	f := newFixture(t, 5)
	uc := f.useCase(nil, nil)

	var first *domain.Appointment
	for i := 0; i < 5; i++ {
		resp, err := uc.Execute(context.Background(), f.request())
		require.NoError(t, err)
		if first == nil {
			first = resp.Appointment
		}
	}
	assert.Equal(t, 5, f.bookings(t))

	_, err := uc.Execute(context.Background(), f.request())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	// освобождаем место напрямую через хранилище, как это делает отмена
	cancelled := domain.StatusCancelled
	_, err = f.store.Appointments().Update(context.Background(), first.ID, domain.AppointmentPatch{Status: &cancelled})
	require.NoError(t, err)
	_, err = f.store.Slots().DecrementBookingsFloored(context.Background(), f.slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, f.bookings(t))

	_, err = uc.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, 5, f.bookings(t))
}

func TestExecute_ConcurrentBookingsNeverOverbook(t *testing.T) {
	const (
		capacity = 3
		callers  = 20
	)
	f := newFixture(t, capacity)
	uc := f.useCase(nil, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		exceeded int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), f.request())
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrCapacityExceeded):
				exceeded++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, success)
	assert.Equal(t, callers-capacity, exceeded)
	assert.Equal(t, capacity, f.bookings(t))

	confirmed := domain.StatusConfirmed
	list, err := f.store.Appointments().List(context.Background(), domain.AppointmentsFilter{Status: &confirmed})
	require.NoError(t, err)
	assert.Len(t, list, capacity)
}

func TestExecute_ZeroCapacity(t *testing.T) {
	f := newFixture(t, 0)
	uc := f.useCase(nil, nil)

	_, err := uc.Execute(context.Background(), f.request())
	assert.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, 0, f.bookings(t))
}

func TestExecute_SlotNotFound(t *testing.T) {
	f := newFixture(t, 1)
	uc := f.useCase(nil, nil)

	req := f.request()
	req.TimeSlotID = uuid.New()
	_, err := uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestExecute_LostRaceIsCompensated(t *testing.T) {
	f := newFixture(t, 1)
	uc := f.useCase(&lostRaceSlotRepo{SlotRepository: f.store.Slots()}, nil)

	_, err := uc.Execute(context.Background(), f.request())
	assert.ErrorIs(t, err, ErrCapacityExceeded)

	list, err := f.store.Appointments().List(context.Background(), domain.AppointmentsFilter{})
	require.NoError(t, err)
	assert.Empty(t, list, "appointment must be rolled back")
	assert.Empty(t, f.reporter.reports)
	f.notifier.AssertNotCalled(t, "SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecute_IncrementErrorIsCompensated(t *testing.T) {
	f := newFixture(t, 1)
	uc := f.useCase(&lostRaceSlotRepo{SlotRepository: f.store.Slots(), err: errors.New("deadlock detected")}, nil)

	_, err := uc.Execute(context.Background(), f.request())
	assert.ErrorIs(t, err, ErrInternal)

	list, err := f.store.Appointments().List(context.Background(), domain.AppointmentsFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExecute_CompensationFailure(t *testing.T) {
	f := newFixture(t, 1)
	appts := &brokenDeleteRepo{AppointmentRepository: f.store.Appointments()}
	uc := f.useCase(&lostRaceSlotRepo{SlotRepository: f.store.Slots()}, appts)

	_, err := uc.Execute(context.Background(), f.request())
	require.ErrorIs(t, err, ErrCompensationFailure)
	assert.Equal(t, int(fastPolicy.MaxTries), appts.calls)

	// запись осталась и видна для сверки
	list, err := f.store.Appointments().List(context.Background(), domain.AppointmentsFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.Len(t, f.reporter.reports, 1)
	report := f.reporter.reports[0]
	assert.Equal(t, domain.InconsistencyCompensationFailed, report.Kind)
	assert.Equal(t, list[0].ID, report.AppointmentID)
	assert.Equal(t, f.slot.ID, report.TimeSlotID)
}

func TestExecute_NotifierFailureKeepsBooking(t *testing.T) {
	f := newFixture(t, 1)
	f.notifier = &mockNotifier{}
	f.notifier.On("SendBookingConfirmation", mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("smtp: 421 service not available"))
	uc := f.useCase(nil, nil)

	resp, err := uc.Execute(context.Background(), f.request())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusConfirmed, resp.Appointment.Status)
	assert.Equal(t, 1, f.bookings(t))
}

func TestExecute_Validation(t *testing.T) {
	f := newFixture(t, 1)
	uc := f.useCase(nil, nil)

	tests := []struct {
		name   string
		modify func(r *Request)
	}{
		{name: "missing slot", modify: func(r *Request) { r.TimeSlotID = uuid.Nil }},
		{name: "bad email", modify: func(r *Request) { r.ClientEmail = "not-an-email" }},
		{name: "missing name", modify: func(r *Request) { r.ClientName = "  " }},
		{name: "bad phone", modify: func(r *Request) { r.ClientPhone = "12" }},
		{name: "missing service", modify: func(r *Request) { r.Service = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request()
			tt.modify(req)
			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, f.bookings(t))
}
