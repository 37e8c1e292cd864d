package reminder

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Config параметры планировщика напоминаний
type Config struct {
	Enabled       bool
	CheckInterval time.Duration  // Пауза между тиками
	LeadTime      time.Duration  // За сколько до начала записи напоминать
	Tolerance     time.Duration  // Полуширина окна вокруг now+LeadTime
	BatchSize     int            // Размер страницы при выборке кандидатов
	Location      *time.Location // Таймзона дат и времени слотов
	SendTimeout   time.Duration  // Таймаут одной отправки; должен быть меньше TTL захвата
}

// Window окно напоминаний, границы включительно
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains возвращает true, если t попадает в окно
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// TickResult итог одного тика
type TickResult struct {
	Window     Window
	Candidates int // Подтвержденные записи без напоминания в диапазоне дат окна
	Sent       int
	Failed     int
	Skipped    int // Вне окна или уже обрабатываются
}

// withDefaults заполняет незаданные параметры
func (c Config) withDefaults() Config {
	if c.CheckInterval <= 0 {
		c.CheckInterval = domain.DefaultCheckIntervalMinute * time.Minute
	}
	if c.LeadTime <= 0 {
		c.LeadTime = domain.DefaultReminderLeadHours * time.Hour
	}
	if c.Tolerance < 0 {
		c.Tolerance = 0
	}
	if c.BatchSize <= 0 {
		c.BatchSize = domain.DefaultListLimit
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = defaultSendTimeout
	}
	return c
}
