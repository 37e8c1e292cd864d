package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
)

// Store хранилище слотов и записей в памяти процесса
// Возвращает те же sentinel-ошибки, что и PostgreSQL-репозитории, поэтому
// use cases не различают драйверы. Все операции сериализуются одним мьютексом.
type Store struct {
	mu           sync.Mutex
	slots        map[uuid.UUID]*domain.TimeSlot
	appointments map[uuid.UUID]*domain.Appointment
	now          func() time.Time
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		slots:        make(map[uuid.UUID]*domain.TimeSlot),
		appointments: make(map[uuid.UUID]*domain.Appointment),
		now:          time.Now,
	}
}

// Slots возвращает репозиторий слотов поверх хранилища
func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{store: s}
}

// Appointments возвращает репозиторий записей поверх хранилища
func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

// SlotRepository слоты в памяти
type SlotRepository struct {
	store *Store
}

// Create создает слот; пара (date, start_time) уникальна
func (r *SlotRepository) Create(ctx context.Context, slot *domain.TimeSlot) (*domain.TimeSlot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	date := domain.DateOnly(slot.Date)
	for _, existing := range s.slots {
		if existing.Date.Equal(date) && existing.StartTime == slot.StartTime {
			return nil, fmt.Errorf("%w: Create - date=%s start=%s", slotRepo.ErrDuplicateSlot, date.Format(domain.DateFormat), slot.StartTime)
		}
	}

	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	now := s.now()
	slot.Date = date
	slot.CreatedAt = now
	slot.UpdatedAt = now

	stored := *slot
	s.slots[slot.ID] = &stored

	return slot, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	out := *slot
	return &out, nil
}

// ListByDate возвращает слоты на дату по возрастанию времени начала
func (r *SlotRepository) ListByDate(ctx context.Context, date time.Time) ([]*domain.TimeSlot, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	day := domain.DateOnly(date)
	slots := make([]*domain.TimeSlot, 0)
	for _, slot := range s.slots {
		if slot.Date.Equal(day) {
			out := *slot
			slots = append(slots, &out)
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].StartTime.IsBefore(slots[j].StartTime)
	})

	return slots, nil
}

// IncrementBookingsIfAvailable атомарно занимает место, если current < max
func (r *SlotRepository) IncrementBookingsIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok || slot.CurrentBookings >= slot.MaxCapacity {
		return false, nil
	}
	slot.CurrentBookings++
	slot.UpdatedAt = s.now()
	return true, nil
}

// DecrementBookingsFloored атомарно освобождает место, не опускаясь ниже нуля
func (r *SlotRepository) DecrementBookingsFloored(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[id]
	if !ok {
		return false, nil
	}
	if slot.CurrentBookings > 0 {
		slot.CurrentBookings--
	}
	slot.UpdatedAt = s.now()
	return true, nil
}

// AppointmentRepository записи в памяти
type AppointmentRepository struct {
	store *Store
}

// Create создает запись
func (r *AppointmentRepository) Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	now := s.now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	stored := *appt
	s.appointments[appt.ID] = &stored

	return appt, nil
}

// GetByID получает запись по ID
func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	out := *appt
	return &out, nil
}

// Update частично обновляет запись
func (r *AppointmentRepository) Update(ctx context.Context, id uuid.UUID, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	if !patch.IsEmpty() {
		patch.Apply(appt)
		appt.UpdatedAt = s.now()
	}
	out := *appt
	return &out, nil
}

// CancelIfConfirmed атомарно переводит запись из confirmed в cancelled
func (r *AppointmentRepository) CancelIfConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	appt, ok := s.appointments[id]
	if !ok {
		return false, appointmentRepo.ErrAppointmentNotFound
	}
	if appt.Status != domain.StatusConfirmed {
		return false, nil
	}
	appt.Status = domain.StatusCancelled
	appt.UpdatedAt = s.now()
	return true, nil
}

// Delete удаляет запись; false, если записи не было
func (r *AppointmentRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.appointments[id]; !ok {
		return false, nil
	}
	delete(s.appointments, id)
	return true, nil
}

// List возвращает записи по фильтру, упорядоченные по дате и времени слота
func (r *AppointmentRepository) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	type row struct {
		appt *domain.Appointment
		slot *domain.TimeSlot
	}

	rows := make([]row, 0)
	for _, appt := range s.appointments {
		slot, ok := s.slots[appt.TimeSlotID]
		if !ok {
			// как INNER JOIN: запись без слота не попадает в выборку
			continue
		}
		if !matches(filter, appt, slot) {
			continue
		}
		out := *appt
		rows = append(rows, row{appt: &out, slot: slot})
	}

	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.slot.Date.Equal(b.slot.Date) {
			return a.slot.Date.Before(b.slot.Date)
		}
		if a.slot.StartTime != b.slot.StartTime {
			return a.slot.StartTime.IsBefore(b.slot.StartTime)
		}
		return a.appt.CreatedAt.Before(b.appt.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	appointments := make([]*domain.Appointment, 0, len(rows))
	for _, r := range rows {
		appointments = append(appointments, r.appt)
	}
	return appointments, nil
}

func matches(filter domain.AppointmentsFilter, appt *domain.Appointment, slot *domain.TimeSlot) bool {
	if filter.Status != nil && appt.Status != *filter.Status {
		return false
	}
	if filter.ReminderSent != nil && appt.ReminderSent != *filter.ReminderSent {
		return false
	}
	if filter.TimeSlotID != nil && appt.TimeSlotID != *filter.TimeSlotID {
		return false
	}
	if filter.SlotDateFrom != nil && slot.Date.Before(domain.DateOnly(*filter.SlotDateFrom)) {
		return false
	}
	if filter.SlotDateTo != nil && slot.Date.After(domain.DateOnly(*filter.SlotDateTo)) {
		return false
	}
	return true
}
