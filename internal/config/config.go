package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

// Драйверы хранилища
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Провайдеры уведомлений
const (
	ProviderEmail   = "email"
	ProviderKafka   = "kafka"
	ProviderWebhook = "webhook"
	ProviderNoop    = "noop"
)

// Переменные окружения, переопределяющие секреты из файла
const (
	envDatabasePassword = "DATABASE_PASSWORD"
	envSMTPPassword     = "SMTP_PASSWORD"
	envRedisPassword    = "REDIS_PASSWORD"
	envWebhookSecret    = "WEBHOOK_SECRET"
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Server       ServerConfig       `toml:"server"`
	Logs         LogsConfig         `toml:"logs"`
	Database     DatabaseConfig     `toml:"database"`
	Appointments AppointmentsConfig `toml:"appointments"`
	Scheduler    SchedulerConfig    `toml:"scheduler"`
	Retry        RetryConfig        `toml:"retry"`
	Notifier     NotifierConfig     `toml:"notifier"`
	Email        EmailConfig        `toml:"email"`
	Kafka        KafkaConfig        `toml:"kafka"`
	Webhook      WebhookConfig      `toml:"webhook"`
	Redis        RedisConfig        `toml:"redis"`
	Metrics      MetricsConfig      `toml:"metrics"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port"`
	ReadTimeout     int `toml:"read_timeout"`
	WriteTimeout    int `toml:"write_timeout"`
	IdleTimeout     int `toml:"idle_timeout"`
	ShutdownTimeout int `toml:"shutdown_timeout"`
}

type LogsConfig struct {
	Level      string `toml:"level"`
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

type DatabaseConfig struct {
	Driver          string `toml:"driver"`
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	User            string `toml:"user"`
	Password        string `toml:"password"`
	DBName          string `toml:"dbname"`
	SSLMode         string `toml:"sslmode"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	MaxIdleConns    int    `toml:"max_idle_conns"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime"`
}

// DSN строка подключения к PostgreSQL
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type AppointmentsConfig struct {
	WorkingHoursStart          string `toml:"working_hours_start"`
	WorkingHoursEnd            string `toml:"working_hours_end"`
	DefaultSlotDurationMinutes int    `toml:"default_slot_duration_minutes"`
	DefaultMaxCapacityPerSlot  int    `toml:"default_max_capacity_per_slot"`
	Timezone                   string `toml:"timezone"`
	PhoneRegion                string `toml:"phone_region"`
}

// SlotsConfig параметры генерации слотов; вызывать после Validate
func (c AppointmentsConfig) SlotsConfig() domain.SlotsConfig {
	start, _ := types.NewTimeStringFromString(c.WorkingHoursStart)
	end, _ := types.NewTimeStringFromString(c.WorkingHoursEnd)
	return domain.SlotsConfig{
		WorkingHoursStart:   start,
		WorkingHoursEnd:     end,
		SlotDurationMinutes: c.DefaultSlotDurationMinutes,
		DefaultMaxCapacity:  c.DefaultMaxCapacityPerSlot,
	}
}

// Location таймзона слотов; вызывать после Validate
func (c AppointmentsConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type SchedulerConfig struct {
	Enabled              bool `toml:"enabled"`
	CheckIntervalMinutes int  `toml:"check_interval_minutes"`
	ReminderLeadHours    int  `toml:"reminder_lead_hours"`
	ToleranceMinutes     int  `toml:"tolerance_minutes"`
	BatchSize            int  `toml:"batch_size"`
	ClaimTTLSeconds      int  `toml:"claim_ttl_seconds"`
	SendTimeoutSeconds   int  `toml:"send_timeout_seconds"`
}

type RetryConfig struct {
	MaxTries          uint `toml:"max_tries"`
	InitialIntervalMS int  `toml:"initial_interval_ms"`
	MaxIntervalMS     int  `toml:"max_interval_ms"`
}

// Policy политика повторов для отката и освобождения мест
func (c RetryConfig) Policy() retry.Policy {
	return retry.Policy{
		MaxTries:        c.MaxTries,
		InitialInterval: time.Duration(c.InitialIntervalMS) * time.Millisecond,
		MaxInterval:     time.Duration(c.MaxIntervalMS) * time.Millisecond,
	}
}

type NotifierConfig struct {
	Provider string `toml:"provider"`
	Timeout  int    `toml:"timeout"`
}

type EmailConfig struct {
	SMTPHost     string `toml:"smtp_host"`
	SMTPPort     int    `toml:"smtp_port"`
	SMTPUsername string `toml:"smtp_username"`
	SMTPPassword string `toml:"smtp_password"`
	SMTPUseTLS   bool   `toml:"smtp_use_tls"`
	From         string `toml:"from"`
	FromName     string `toml:"from_name"`
}

type KafkaConfig struct {
	Brokers            string `toml:"brokers"`
	NotificationsTopic string `toml:"notifications_topic"`
	IntegrityTopic     string `toml:"integrity_topic"`
}

type WebhookConfig struct {
	URL     string `toml:"url"`
	Secret  string `toml:"secret"`
	Timeout int    `toml:"timeout"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled"`
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled"`
	Path        string `toml:"path"`
	ServiceName string `toml:"service_name"`
}

// Load читает .env (если есть) и TOML-файл, применяет значения по умолчанию
// и переопределения из окружения, затем проверяет конфигурацию
func Load(path string) (*Config, error) {
	// .env необязателен
	_ = godotenv.Load()

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     15,
			WriteTimeout:    15,
			IdleTimeout:     60,
			ShutdownTimeout: 30,
		},
		Logs: LogsConfig{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Database: DatabaseConfig{
			Driver:          DriverPostgres,
			Host:            "localhost",
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Appointments: AppointmentsConfig{
			WorkingHoursStart:          domain.DefaultWorkingHoursStart,
			WorkingHoursEnd:            domain.DefaultWorkingHoursEnd,
			DefaultSlotDurationMinutes: domain.DefaultSlotDurationMinutes,
			DefaultMaxCapacityPerSlot:  domain.DefaultMaxCapacityPerSlot,
			Timezone:                   domain.DefaultTimezone,
		},
		Scheduler: SchedulerConfig{
			Enabled:              true,
			CheckIntervalMinutes: domain.DefaultCheckIntervalMinute,
			ReminderLeadHours:    domain.DefaultReminderLeadHours,
			ToleranceMinutes:     domain.DefaultToleranceMinutes,
			BatchSize:            domain.DefaultListLimit,
			ClaimTTLSeconds:      600,
			SendTimeoutSeconds:   30,
		},
		Notifier: NotifierConfig{
			Provider: ProviderNoop,
			Timeout:  10,
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
		Kafka: KafkaConfig{
			NotificationsTopic: "appointments.notifications",
			IntegrityTopic:     "appointments.integrity",
		},
		Webhook: WebhookConfig{
			Timeout: 5,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "appointment_service",
		},
	}
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(envDatabasePassword); ok {
		c.Database.Password = v
	}
	if v, ok := os.LookupEnv(envSMTPPassword); ok {
		c.Email.SMTPPassword = v
	}
	if v, ok := os.LookupEnv(envRedisPassword); ok {
		c.Redis.Password = v
	}
	if v, ok := os.LookupEnv(envWebhookSecret); ok {
		c.Webhook.Secret = v
	}
}

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.http_port out of range: %d", c.Server.HTTPPort))
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverMemory:
	default:
		errs = append(errs, fmt.Sprintf("unknown database.driver %q", c.Database.Driver))
	}

	a := c.Appointments
	start, errStart := types.NewTimeStringFromString(a.WorkingHoursStart)
	if errStart != nil {
		errs = append(errs, fmt.Sprintf("appointments.working_hours_start: %v", errStart))
	}
	end, errEnd := types.NewTimeStringFromString(a.WorkingHoursEnd)
	if errEnd != nil {
		errs = append(errs, fmt.Sprintf("appointments.working_hours_end: %v", errEnd))
	}
	if errStart == nil && errEnd == nil && !start.IsBefore(end) {
		errs = append(errs, fmt.Sprintf("appointments.working_hours_start %s must be before working_hours_end %s", start, end))
	}
	if !domain.IsValidDuration(a.DefaultSlotDurationMinutes) {
		errs = append(errs, fmt.Sprintf("appointments.default_slot_duration_minutes must be in %d..%d",
			domain.MinSlotDurationMinutes, domain.MaxSlotDurationMinutes))
	}
	if a.DefaultMaxCapacityPerSlot < 0 {
		errs = append(errs, "appointments.default_max_capacity_per_slot must not be negative")
	}
	if _, err := time.LoadLocation(a.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("appointments.timezone %q: %v", a.Timezone, err))
	}

	s := c.Scheduler
	if s.CheckIntervalMinutes < 1 {
		errs = append(errs, "scheduler.check_interval_minutes must be >= 1")
	}
	if s.ReminderLeadHours < 1 {
		errs = append(errs, "scheduler.reminder_lead_hours must be >= 1")
	}
	if s.ToleranceMinutes < 0 {
		errs = append(errs, "scheduler.tolerance_minutes must not be negative")
	}
	if s.SendTimeoutSeconds < 1 || s.SendTimeoutSeconds >= s.ClaimTTLSeconds {
		errs = append(errs, fmt.Sprintf("scheduler.send_timeout_seconds must be in 1..%d (below claim_ttl_seconds)",
			s.ClaimTTLSeconds-1))
	}

	switch c.Notifier.Provider {
	case ProviderNoop:
	case ProviderEmail:
		if c.Email.SMTPHost == "" || c.Email.From == "" {
			errs = append(errs, "email.smtp_host and email.from are required for provider email")
		}
	case ProviderKafka:
		if strings.TrimSpace(c.Kafka.Brokers) == "" {
			errs = append(errs, "kafka.brokers is required for provider kafka")
		}
	case ProviderWebhook:
		if c.Webhook.URL == "" {
			errs = append(errs, "webhook.url is required for provider webhook")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown notifier.provider %q", c.Notifier.Provider))
	}

	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, "redis.addr is required when redis is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}
	return nil
}
