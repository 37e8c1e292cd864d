package generate_slots

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на генерацию слотов
type Request struct {
	StartDate           time.Time // Первая дата периода, включительно
	EndDate             time.Time // Последняя дата периода, включительно
	SlotDurationMinutes int       // Длительность слота; 0 - значение из конфигурации
}

// Response результат генерации
// Slots содержит ровно те слоты, которые были созданы или уже существовали
type Response struct {
	Slots    []*domain.TimeSlot
	Created  int // Сколько слотов создано
	Existing int // Сколько слотов уже было на даты из периода
	Failed   int // Сколько слотов не удалось сохранить
}
