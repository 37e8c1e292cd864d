package book_appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
)

// Request модель запроса на запись в слот
type Request struct {
	TimeSlotID  uuid.UUID  `validate:"required"`
	OrderID     *uuid.UUID
	ClientEmail string     `validate:"required,email,max=254"`
	ClientName  string     `validate:"required,max=200"`
	ClientPhone string     `validate:"required,max=32"`
	Service     string     `validate:"required,max=200"`
	Notes       *string    `validate:"omitempty,max=500"`
}

// Response модель ответа с созданной записью
type Response struct {
	Appointment *domain.Appointment
	Slot        *domain.TimeSlot // Слот на момент бронирования, с учетом занятого места
}

// Options параметры use case
type Options struct {
	PhoneRegion   string        // Регион по умолчанию для номеров без кода страны (ISO 3166-1, например "CM")
	NotifyTimeout time.Duration // Таймаут отправки подтверждения
	Compensation  retry.Policy  // Повторы удаления записи при откате
}
