package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
)

// Handler обработчик маршрута
type Handler interface {
	Handle(w http.ResponseWriter, r *http.Request)
}

// Handlers обработчики API
type Handlers struct {
	GenerateSlots     Handler
	GetSlots          Handler
	BookAppointment   Handler
	ListAppointments  Handler
	GetAppointment    Handler
	CancelAppointment Handler
	SendReminder      Handler
	Health            Handler
}

// Options параметры роутера
type Options struct {
	Metrics     *metrics.Metrics // nil - метрики выключены
	MetricsPath string
	Logger      middleware.Logger
}

// New собирает роутер со всеми маршрутами сервиса
func New(h Handlers, opts Options) *mux.Router {
	r := mux.NewRouter()

	if opts.Logger != nil {
		r.Use(middleware.Recovery(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics))
		if opts.MetricsPath != "" {
			r.Handle(opts.MetricsPath, opts.Metrics.Handler()).Methods(http.MethodGet)
		}
	}

	r.HandleFunc("/healthz", h.Health.Handle).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	if opts.Logger != nil {
		api.Use(middleware.AccessLog(opts.Logger))
	}

	// --- Слоты ---
	api.HandleFunc("/slots/generate", h.GenerateSlots.Handle).Methods(http.MethodPost)
	api.HandleFunc("/slots", h.GetSlots.Handle).Methods(http.MethodGet)

	// --- Записи ---
	api.HandleFunc("/appointments", h.BookAppointment.Handle).Methods(http.MethodPost)
	api.HandleFunc("/appointments", h.ListAppointments.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{appointmentId}", h.GetAppointment.Handle).Methods(http.MethodGet)
	api.HandleFunc("/appointments/{appointmentId}", h.CancelAppointment.Handle).Methods(http.MethodDelete)
	api.HandleFunc("/appointments/{appointmentId}/send-reminder", h.SendReminder.Handle).Methods(http.MethodPost)

	return r
}
