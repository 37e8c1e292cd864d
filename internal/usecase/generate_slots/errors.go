package generate_slots

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("generate_slots: invalid input data")

	// ErrInvalidDuration возвращается, когда длительность слота вне допустимого диапазона
	ErrInvalidDuration = errors.New("generate_slots: slot duration out of range")

	// ErrInvalidDateRange возвращается, когда конец периода раньше начала
	ErrInvalidDateRange = errors.New("generate_slots: end date is before start date")

	// ErrDateRangeTooLong возвращается, когда период превышает MaxGenerationDays
	ErrDateRangeTooLong = errors.New("generate_slots: date range is too long")
)
