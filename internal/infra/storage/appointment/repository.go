package appointment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const tableName = "appointments"

var appointmentColumns = []string{
	"a.id",
	"a.order_id",
	"a.time_slot_id",
	"a.client_email",
	"a.client_name",
	"a.client_phone",
	"a.service",
	"a.notes",
	"a.status",
	"a.reminder_sent",
	"a.created_at",
	"a.updated_at",
}

// Repository репозиторий для работы с записями клиентов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую запись
func (r *Repository) Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"id",
			"order_id",
			"time_slot_id",
			"client_email",
			"client_name",
			"client_phone",
			"service",
			"notes",
			"status",
			"reminder_sent",
		).
		Values(
			appt.ID,
			nullUUID(appt.OrderID),
			appt.TimeSlotID,
			appt.ClientEmail,
			appt.ClientName,
			appt.ClientPhone,
			appt.Service,
			appt.Notes,
			appt.Status,
			appt.ReminderSent,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return appt, nil
}

// GetByID получает запись по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From(tableName + " a").
		Where(squirrel.Eq{"a.id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	appt, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	return appt, nil
}

// Update частично обновляет запись и возвращает ее актуальное состояние
// Пустой патч эквивалентен GetByID
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch domain.AppointmentPatch) (*domain.Appointment, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}

	builder := psqlbuilder.Update(tableName + " a").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"a.id": id})

	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.ReminderSent != nil {
		builder = builder.Set("reminder_sent", *patch.ReminderSent)
	}
	if patch.Notes != nil {
		builder = builder.Set("notes", *patch.Notes)
	}

	query, args, err := builder.
		Suffix("RETURNING " + strings.Join(appointmentColumns, ", ")).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	appt, err := scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	return appt, nil
}

// CancelIfConfirmed переводит запись из confirmed в cancelled одним условным UPDATE
// Возвращает true только тому вызову, который выполнил переход.
// false без ошибки: запись уже отменена или параллельный вызов успел раньше.
func (r *Repository) CancelIfConfirmed(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := psqlbuilder.Update(tableName).
		Set("status", domain.StatusCancelled).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "status": domain.StatusConfirmed}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: CancelIfConfirmed - build update query: %v", ErrBuildQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: CancelIfConfirmed - execute update: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: CancelIfConfirmed - rows affected: %v", ErrExecQuery, err)
	}

	return affected == 1, nil
}

// Delete удаляет запись; используется для компенсации неудачного бронирования
// Возвращает false, если записи не было
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := psqlbuilder.Delete(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: Delete - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: Delete - execute delete: %v", ErrExecQuery, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: Delete - rows affected: %v", ErrExecQuery, err)
	}

	return affected == 1, nil
}

// List получает записи с фильтрацией и пагинацией
// Фильтр по дате применяется к дате слота, поэтому запрос джойнит time_slots.
// Сортировка: дата слота, время начала, время создания.
func (r *Repository) List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error) {
	builder := psqlbuilder.Select(appointmentColumns...).
		From(tableName + " a").
		Join("time_slots s ON s.id = a.time_slot_id")

	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"a.status": *filter.Status})
	}
	if filter.ReminderSent != nil {
		builder = builder.Where(squirrel.Eq{"a.reminder_sent": *filter.ReminderSent})
	}
	if filter.TimeSlotID != nil {
		builder = builder.Where(squirrel.Eq{"a.time_slot_id": *filter.TimeSlotID})
	}
	if filter.SlotDateFrom != nil {
		builder = builder.Where(squirrel.GtOrEq{"s.date": domain.DateOnly(*filter.SlotDateFrom)})
	}
	if filter.SlotDateTo != nil {
		builder = builder.Where(squirrel.LtOrEq{"s.date": domain.DateOnly(*filter.SlotDateTo)})
	}

	builder = builder.OrderBy("s.date ASC", "s.start_time ASC", "a.created_at ASC")

	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: List - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: List - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: List - scan appointment: %v", ErrScanRow, err)
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: List - rows iteration: %v", ErrScanRow, err)
	}

	return appointments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		appt                 domain.Appointment
		orderID              uuid.NullUUID
		notes                sql.NullString
		status               string
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&appt.ID,
		&orderID,
		&appt.TimeSlotID,
		&appt.ClientEmail,
		&appt.ClientName,
		&appt.ClientPhone,
		&appt.Service,
		&notes,
		&status,
		&appt.ReminderSent,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if orderID.Valid {
		id := orderID.UUID
		appt.OrderID = &id
	}
	if notes.Valid {
		n := notes.String
		appt.Notes = &n
	}
	appt.Status = domain.AppointmentStatus(status)
	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return &appt, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
