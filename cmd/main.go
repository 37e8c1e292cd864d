package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	bookAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/book_appointment"
	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	generateSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/generate_slots"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_slots"
	healthHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/health"
	listAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_appointments"
	sendReminderHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/send_reminder"
	"github.com/m04kA/SMC-AppointmentService/internal/api/router"
	"github.com/m04kA/SMC-AppointmentService/internal/config"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/claims"
	appointmentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	slotRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/slot"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/integrity"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifier"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/webhook"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	slotsService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
	bookAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
	cancelAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
	generateSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/generate_slots"
	"github.com/m04kA/SMC-AppointmentService/internal/worker/reminder"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

// slotStore общий контракт postgres и in-memory хранилища слотов
type slotStore interface {
	Create(ctx context.Context, slot *domain.TimeSlot) (*domain.TimeSlot, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TimeSlot, error)
	ListByDate(ctx context.Context, date time.Time) ([]*domain.TimeSlot, error)
	IncrementBookingsIfAvailable(ctx context.Context, id uuid.UUID) (bool, error)
	DecrementBookingsFloored(ctx context.Context, id uuid.UUID) (bool, error)
}

// appointmentStore общий контракт postgres и in-memory хранилища записей
type appointmentStore interface {
	Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error)
	Update(ctx context.Context, id uuid.UUID, patch domain.AppointmentPatch) (*domain.Appointment, error)
	CancelIfConfirmed(ctx context.Context, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, filter domain.AppointmentsFilter) ([]*domain.Appointment, error)
}

// reminderClaimer захват напоминаний: Redis для нескольких экземпляров, память для одного
type reminderClaimer interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.NewWithOptions(cfg.Logs.File, cfg.Logs.Level, logger.Options{
		MaxSizeMB:  cfg.Logs.MaxSizeMB,
		MaxBackups: cfg.Logs.MaxBackups,
		MaxAgeDays: cfg.Logs.MaxAgeDays,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-AppointmentService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Хранилище
	var (
		slots        slotStore
		appointments appointmentStore
	)

	switch cfg.Database.Driver {
	case config.DriverMemory:
		store := memory.NewStore()
		slots = store.Slots()
		appointments = store.Appointments()
		log.Warn("Using in-memory storage, data is lost on restart")

	default:
		db, err := sql.Open("postgres", cfg.Database.DSN())
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer db.Close()

		// Настраиваем connection pool
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

		if err := db.Ping(); err != nil {
			log.Fatal("Failed to ping database: %v", err)
		}
		log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
			cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

		slots = slotRepo.NewRepository(db)
		appointments = appointmentRepo.NewRepository(db)
	}

	// Kafka producer нужен провайдеру kafka и событиям целостности
	var producer *events.Producer
	if brokers := events.SplitBrokers(cfg.Kafka.Brokers); len(brokers) > 0 {
		producer, err = events.NewProducer(brokers, time.Duration(cfg.Notifier.Timeout)*time.Second)
		if err != nil {
			log.Fatal("Failed to create kafka producer: %v", err)
		}
		defer producer.Close()
		log.Info("Kafka producer initialized (brokers=%v)", brokers)
	}

	// Отчеты о нарушениях целостности
	var reporter *integrity.Reporter
	if producer != nil {
		reporter = integrity.NewReporter(producer, cfg.Kafka.IntegrityTopic, metricsCollector, log)
	} else {
		reporter = integrity.NewReporter(nil, "", metricsCollector, log)
	}

	// Уведомления
	loc := cfg.Appointments.Location()
	var notify notifier.Notifier
	switch cfg.Notifier.Provider {
	case config.ProviderEmail:
		notify, err = notifier.NewEmailNotifier(notifier.EmailConfig{
			Host:     cfg.Email.SMTPHost,
			Port:     cfg.Email.SMTPPort,
			Username: cfg.Email.SMTPUsername,
			Password: cfg.Email.SMTPPassword,
			UseTLS:   cfg.Email.SMTPUseTLS,
			From:     cfg.Email.From,
			FromName: cfg.Email.FromName,
			Timeout:  time.Duration(cfg.Notifier.Timeout) * time.Second,
			Location: loc,
		}, log)
		if err != nil {
			log.Fatal("Failed to create email notifier: %v", err)
		}
	case config.ProviderKafka:
		notify = notifier.NewKafkaNotifier(producer, cfg.Kafka.NotificationsTopic, loc, log)
	case config.ProviderWebhook:
		client := webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Secret, time.Duration(cfg.Webhook.Timeout)*time.Second, log)
		notify = notifier.NewWebhookNotifier(client, loc, log)
	default:
		notify = notifier.NewNoopNotifier(log)
	}
	log.Info("Notifier initialized (provider=%s)", cfg.Notifier.Provider)

	// Захват напоминаний
	claimTTL := time.Duration(cfg.Scheduler.ClaimTTLSeconds) * time.Second
	var claimer reminderClaimer
	if cfg.Redis.Enabled {
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		rdb, err := claims.NewRedisClient(pingCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancelPing()
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer rdb.Close()
		claimer = claims.NewRedisClaimer(rdb, "appointments:", claimTTL)
		log.Info("Reminder claims stored in redis (addr=%s)", cfg.Redis.Addr)
	} else {
		claimer = claims.NewMemoryClaimer(claimTTL)
	}

	// Инициализируем сервисы
	slotSvc := slotsService.NewService(slots, log)
	appointmentSvc := appointmentsService.NewService(appointments, slots, log)

	// Инициализируем use cases
	retryPolicy := cfg.Retry.Policy()

	generateSlotsUseCase := generateSlotsUC.NewUseCase(slots, cfg.Appointments.SlotsConfig(), metricsCollector, log)
	bookAppointmentUseCase := bookAppointmentUC.NewUseCase(
		slots,
		appointments,
		notify,
		reporter,
		metricsCollector,
		log,
		bookAppointmentUC.Options{
			PhoneRegion:   cfg.Appointments.PhoneRegion,
			NotifyTimeout: time.Duration(cfg.Notifier.Timeout) * time.Second,
			Compensation:  retryPolicy,
		},
	)
	cancelAppointmentUseCase := cancelAppointmentUC.NewUseCase(slots, appointments, reporter, metricsCollector, log, retryPolicy)

	// Планировщик напоминаний
	scheduler := reminder.NewScheduler(
		appointments,
		slots,
		notify,
		claimer,
		reporter,
		metricsCollector,
		log,
		reminder.Config{
			Enabled:       cfg.Scheduler.Enabled,
			CheckInterval: time.Duration(cfg.Scheduler.CheckIntervalMinutes) * time.Minute,
			LeadTime:      time.Duration(cfg.Scheduler.ReminderLeadHours) * time.Hour,
			Tolerance:     time.Duration(cfg.Scheduler.ToleranceMinutes) * time.Minute,
			BatchSize:     cfg.Scheduler.BatchSize,
			Location:      loc,
			SendTimeout:   time.Duration(cfg.Scheduler.SendTimeoutSeconds) * time.Second,
		},
	)

	schedulerCtx, cancelScheduler := context.WithCancel(context.Background())
	defer cancelScheduler()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(schedulerCtx)
	}()

	// Инициализируем handlers и роутер
	opts := router.Options{Logger: log}
	if cfg.Metrics.Enabled {
		opts.Metrics = metricsCollector
		opts.MetricsPath = cfg.Metrics.Path
	}

	r := router.New(router.Handlers{
		GenerateSlots:     generateSlotsHandler.NewHandler(generateSlotsUseCase, log),
		GetSlots:          getSlotsHandler.NewHandler(slotSvc, log),
		BookAppointment:   bookAppointmentHandler.NewHandler(bookAppointmentUseCase, log),
		ListAppointments:  listAppointmentsHandler.NewHandler(appointmentSvc, log),
		GetAppointment:    getAppointmentHandler.NewHandler(appointmentSvc, log),
		CancelAppointment: cancelAppointmentHandler.NewHandler(cancelAppointmentUseCase, log),
		SendReminder:      sendReminderHandler.NewHandler(scheduler, log),
		Health:            healthHandler.NewHandler(scheduler),
	}, opts)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем планировщик до закрытия хранилища
	scheduler.Stop()
	wg.Wait()
	log.Info("Reminder scheduler stopped")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
