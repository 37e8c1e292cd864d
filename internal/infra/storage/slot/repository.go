package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const (
	tableName = "time_slots"

	// uniqueViolation код ошибки PostgreSQL при нарушении уникального индекса
	uniqueViolation = "23505"
)

var slotColumns = []string{
	"id",
	"date",
	"start_time",
	"end_time",
	"max_capacity",
	"current_bookings",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с временными слотами
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория слотов
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новый слот
// Пара (date, start_time) уникальна: повторная вставка возвращает ErrDuplicateSlot
func (r *Repository) Create(ctx context.Context, slot *domain.TimeSlot) (*domain.TimeSlot, error) {
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}

	query, args, err := psqlbuilder.Insert(tableName).
		Columns(
			"id",
			"date",
			"start_time",
			"end_time",
			"max_capacity",
			"current_bookings",
		).
		Values(
			slot.ID,
			domain.DateOnly(slot.Date),
			slot.StartTime.String(),
			slot.EndTime.String(),
			slot.MaxCapacity,
			slot.CurrentBookings,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return nil, fmt.Errorf("%w: Create - date=%s start=%s", ErrDuplicateSlot, slot.Date.Format(domain.DateFormat), slot.StartTime)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return slot, nil
}

// GetByID получает слот по ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error) {
	query, args, err := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	slot, err := scanSlot(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan slot: %v", ErrScanRow, err)
	}

	return slot, nil
}

// ListByDate возвращает слоты на дату, упорядоченные по времени начала
func (r *Repository) ListByDate(ctx context.Context, date time.Time) ([]*domain.TimeSlot, error) {
	query, args, err := psqlbuilder.Select(slotColumns...).
		From(tableName).
		Where(squirrel.Eq{"date": domain.DateOnly(date)}).
		OrderBy("start_time ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByDate - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	slots := make([]*domain.TimeSlot, 0)
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListByDate - scan slot: %v", ErrScanRow, err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListByDate - rows iteration: %v", ErrScanRow, err)
	}

	return slots, nil
}

// IncrementBookingsIfAvailable атомарно занимает одно место в слоте
// Проверка емкости и инкремент выполняются одним UPDATE, поэтому параллельные
// запросы не могут превысить max_capacity. Возвращает false, если мест нет
// или слот не существует.
func (r *Repository) IncrementBookingsIfAvailable(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := psqlbuilder.Update(tableName).
		Set("current_bookings", squirrel.Expr("current_bookings + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where("current_bookings < max_capacity").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: IncrementBookingsIfAvailable - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, "IncrementBookingsIfAvailable", query, args)
}

// DecrementBookingsFloored атомарно освобождает одно место, не опускаясь ниже нуля
// Возвращает false, если слот не существует
func (r *Repository) DecrementBookingsFloored(ctx context.Context, id uuid.UUID) (bool, error) {
	query, args, err := psqlbuilder.Update(tableName).
		Set("current_bookings", squirrel.Expr("GREATEST(current_bookings - 1, 0)")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: DecrementBookingsFloored - build update query: %v", ErrBuildQuery, err)
	}

	return r.execAffected(ctx, "DecrementBookingsFloored", query, args)
}

func (r *Repository) execAffected(ctx context.Context, op, query string, args []interface{}) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %s - rows affected: %v", ErrExecQuery, op, err)
	}

	return affected == 1, nil
}

// rowScanner общий интерфейс *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSlot(row rowScanner) (*domain.TimeSlot, error) {
	var (
		slot                 domain.TimeSlot
		startTime, endTime   string
		createdAt, updatedAt sql.NullTime
	)

	err := row.Scan(
		&slot.ID,
		&slot.Date,
		&startTime,
		&endTime,
		&slot.MaxCapacity,
		&slot.CurrentBookings,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	slot.Date = domain.DateOnly(slot.Date)
	slot.StartTime = types.TimeString(startTime)
	slot.EndTime = types.TimeString(endTime)
	slot.CreatedAt = createdAt.Time
	slot.UpdatedAt = updatedAt.Time

	return &slot, nil
}
