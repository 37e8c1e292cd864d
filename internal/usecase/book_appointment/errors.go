package book_appointment

import "errors"

var (
	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("book_appointment: slot not found")

	// ErrCapacityExceeded возвращается, когда в слоте нет свободных мест
	ErrCapacityExceeded = errors.New("book_appointment: slot capacity exceeded")

	// ErrCompensationFailure возвращается, когда запись создана, место не занято,
	// а откат (удаление записи) не удался. Данные требуют сверки
	ErrCompensationFailure = errors.New("book_appointment: compensation failed, appointment left without reserved capacity")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("book_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("book_appointment: internal error")
)

// Значения метки result для метрики бронирований
const (
	resultSuccess             = "success"
	resultInvalid             = "invalid"
	resultNotFound            = "not_found"
	resultCapacityExceeded    = "capacity_exceeded"
	resultCompensationFailure = "compensation_failure"
	resultError               = "error"
)
