package domain

// Default configuration values
const (
	DefaultSlotDurationMinutes = 60
	DefaultMaxCapacityPerSlot  = 5
	DefaultReminderLeadHours   = 24
	DefaultToleranceMinutes    = 60
	DefaultCheckIntervalMinute = 60
	DefaultWorkingHoursStart   = "09:00"
	DefaultWorkingHoursEnd     = "18:00"
	DefaultTimezone            = "Africa/Douala"
)

// Business validation constants
const (
	MinSlotDurationMinutes = 15
	MaxSlotDurationMinutes = 240 // 4 hours
	MaxGenerationDays      = 90
	MaxNotesLength         = 500
	MaxServiceLength       = 200
	MaxClientNameLength    = 200
	DefaultListLimit       = 100
	MaxListLimit           = 1000
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
