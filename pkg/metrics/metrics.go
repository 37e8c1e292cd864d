package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics набор метрик сервиса
// Каждый экземпляр использует собственный registry, поэтому в тестах можно создавать несколько
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	BookingsTotal        *prometheus.CounterVec
	CancellationsTotal   *prometheus.CounterVec
	IntegrityViolations  *prometheus.CounterVec
	RemindersTotal       *prometheus.CounterVec
	ReminderTickDuration prometheus.Histogram
	SlotsGeneratedTotal  prometheus.Counter
}

// New создает и регистрирует метрики с префиксом serviceName
func New(serviceName string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "bookings_total",
			Help:      "Booking attempts by result",
		}, []string{"result"}),
		CancellationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by result",
		}, []string{"result"}),
		IntegrityViolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "integrity_violations_total",
			Help:      "Booking/capacity inconsistencies that need reconciliation",
		}, []string{"kind"}),
		RemindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "reminders_total",
			Help:      "Reminder deliveries by result",
		}, []string{"result"}),
		ReminderTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Name:      "reminder_tick_duration_seconds",
			Help:      "Duration of a reminder scheduler tick",
			Buckets:   prometheus.DefBuckets,
		}),
		SlotsGeneratedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Name:      "slots_generated_total",
			Help:      "Time slots persisted by the generator",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.CancellationsTotal,
		m.IntegrityViolations,
		m.RemindersTotal,
		m.ReminderTickDuration,
		m.SlotsGeneratedTotal,
	)

	return m
}

// Handler HTTP handler для эндпоинта /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry возвращает registry (используется в тестах)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCancellation(result string) {
	if m == nil {
		return
	}
	m.CancellationsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveIntegrityViolation(kind string) {
	if m == nil {
		return
	}
	m.IntegrityViolations.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveReminder(result string) {
	if m == nil {
		return
	}
	m.RemindersTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveReminderTick(d time.Duration) {
	if m == nil {
		return
	}
	m.ReminderTickDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveSlotsGenerated(n int) {
	if m == nil {
		return
	}
	m.SlotsGeneratedTotal.Add(float64(n))
}
