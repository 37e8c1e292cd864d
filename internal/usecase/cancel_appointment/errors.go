package cancel_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("cancel_appointment: appointment not found")

	// ErrCapacityNotReleased возвращается, когда запись отменена, а место в слоте
	// освободить не удалось. Нарушение передано на сверку
	ErrCapacityNotReleased = errors.New("cancel_appointment: appointment cancelled but slot capacity not released")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_appointment: internal error")
)

const (
	resultCancelled        = "cancelled"
	resultAlreadyCancelled = "already_cancelled"
	resultNotFound         = "not_found"
	resultNotReleased      = "capacity_not_released"
	resultError            = "error"
)
