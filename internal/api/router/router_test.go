package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/book_appointment"
	cancelAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/cancel_appointment"
	generateSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/generate_slots"
	getAppointmentHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_appointment"
	getSlotsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/get_slots"
	healthHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/health"
	listAppointmentsHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/list_appointments"
	sendReminderHandler "github.com/m04kA/SMC-AppointmentService/internal/api/handlers/send_reminder"
	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/claims"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/storage/memory"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/integrity"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifier"
	appointmentsService "github.com/m04kA/SMC-AppointmentService/internal/service/appointments"
	appointmentModels "github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	slotsService "github.com/m04kA/SMC-AppointmentService/internal/service/slots"
	slotModels "github.com/m04kA/SMC-AppointmentService/internal/service/slots/models"
	bookAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/book_appointment"
	cancelAppointmentUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
	generateSlotsUC "github.com/m04kA/SMC-AppointmentService/internal/usecase/generate_slots"
	"github.com/m04kA/SMC-AppointmentService/internal/worker/reminder"
	"github.com/m04kA/SMC-AppointmentService/pkg/logger"
	"github.com/m04kA/SMC-AppointmentService/pkg/metrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/retry"
	"github.com/m04kA/SMC-AppointmentService/pkg/types"
)

const testDate = "2030-01-15"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := logger.Nop()
	m := metrics.New("router_test")
	store := memory.NewStore()
	slots := store.Slots()
	appts := store.Appointments()

	start, err := types.NewTimeStringFromString("09:00")
	require.NoError(t, err)
	end, err := types.NewTimeStringFromString("11:00")
	require.NoError(t, err)

	cfg := domain.SlotsConfig{
		WorkingHoursStart:   start,
		WorkingHoursEnd:     end,
		SlotDurationMinutes: 60,
		DefaultMaxCapacity:  2,
	}

	n := notifier.NewNoopNotifier(log)
	reporter := integrity.NewReporter(nil, "", m, log)

	scheduler := reminder.NewScheduler(appts, slots, n, claims.NewMemoryClaimer(claims.DefaultTTL), reporter, m, log, reminder.Config{})

	h := Handlers{
		GenerateSlots:     generateSlotsHandler.NewHandler(generateSlotsUC.NewUseCase(slots, cfg, m, log), log),
		GetSlots:          getSlotsHandler.NewHandler(slotsService.NewService(slots, log), log),
		BookAppointment:   bookAppointmentHandler.NewHandler(bookAppointmentUC.NewUseCase(slots, appts, n, reporter, m, log, bookAppointmentUC.Options{PhoneRegion: "US"}), log),
		ListAppointments:  listAppointmentsHandler.NewHandler(appointmentsService.NewService(appts, slots, log), log),
		GetAppointment:    getAppointmentHandler.NewHandler(appointmentsService.NewService(appts, slots, log), log),
		CancelAppointment: cancelAppointmentHandler.NewHandler(cancelAppointmentUC.NewUseCase(slots, appts, reporter, m, log, retry.Policy{}), log),
		SendReminder:      sendReminderHandler.NewHandler(scheduler, log),
		Health:            healthHandler.NewHandler(scheduler),
	}

	srv := httptest.NewServer(New(h, Options{Metrics: m, MetricsPath: "/metrics", Logger: log}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func bookingBody(slotID, email string) map[string]interface{} {
	return map[string]interface{}{
		"timeSlotId":  slotID,
		"clientEmail": email,
		"clientName":  "Jane Doe",
		"clientPhone": "(650) 253-0000",
		"service":     "Consultation",
	}
}

func TestAppointmentFlow(t *testing.T) {
	srv := newTestServer(t)
	api := srv.URL + "/api/v1"

	// Генерация: 09:00-10:00 и 10:00-11:00
	resp := doJSON(t, http.MethodPost, api+"/slots/generate", map[string]interface{}{
		"startDate": testDate,
		"endDate":   testDate,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var generated generateSlotsHandler.GenerateSlotsResponse
	decode(t, resp, &generated)
	require.Equal(t, 2, generated.Created)
	slotID := generated.Slots[0].ID

	// Заполняем первый слот
	var booked []bookAppointmentHandler.BookAppointmentResponse
	for i := 0; i < 2; i++ {
		resp = doJSON(t, http.MethodPost, api+"/appointments", bookingBody(slotID, fmt.Sprintf("client%d@example.com", i)))
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var b bookAppointmentHandler.BookAppointmentResponse
		decode(t, resp, &b)
		assert.Equal(t, "+16502530000", b.ClientPhone)
		booked = append(booked, b)
	}
	assert.Equal(t, 0, booked[1].AvailableSpots)

	resp = doJSON(t, http.MethodPost, api+"/appointments", bookingBody(slotID, "late@example.com"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Слот виден как заполненный
	resp = doJSON(t, http.MethodGet, api+"/slots?date="+testDate, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var day slotModels.SlotListResponse
	decode(t, resp, &day)
	require.Len(t, day.Slots, 2)
	assert.Equal(t, 2, day.Slots[0].CurrentBookings)
	assert.False(t, day.Slots[0].IsAvailable)

	// Отмена освобождает место, повторная отмена - no-op
	cancelURL := api + "/appointments/" + booked[0].ID
	resp = doJSON(t, http.MethodDelete, cancelURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled cancelAppointmentHandler.CancelAppointmentResponse
	decode(t, resp, &cancelled)
	assert.True(t, cancelled.Cancelled)

	resp = doJSON(t, http.MethodDelete, cancelURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &cancelled)
	assert.False(t, cancelled.Cancelled)

	resp = doJSON(t, http.MethodPost, api+"/appointments", bookingBody(slotID, "late@example.com"))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Список подтвержденных записей
	resp = doJSON(t, http.MethodGet, api+"/appointments?status=confirmed&dateFrom="+testDate+"&dateTo="+testDate, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list appointmentModels.AppointmentListResponse
	decode(t, resp, &list)
	assert.Len(t, list.Appointments, 2)
	assert.Equal(t, 100, list.Limit)

	// Карточка записи
	resp = doJSON(t, http.MethodGet, api+"/appointments/"+booked[1].ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got appointmentModels.AppointmentResponse
	decode(t, resp, &got)
	assert.Equal(t, "09:00", got.StartTime)
	assert.Equal(t, string(domain.StatusConfirmed), got.Status)

	// Ручное напоминание отправляется один раз
	reminderURL := api + "/appointments/" + booked[1].ID + "/send-reminder"
	resp = doJSON(t, http.MethodPost, reminderURL, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &got)
	assert.True(t, got.ReminderSent)

	resp = doJSON(t, http.MethodPost, reminderURL, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, api+"/appointments/"+booked[0].ID+"/send-reminder", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv := newTestServer(t)
	api := srv.URL + "/api/v1"

	tests := []struct {
		name   string
		method string
		url    string
		body   interface{}
		status int
	}{
		{name: "slots without date", method: http.MethodGet, url: api + "/slots", status: http.StatusBadRequest},
		{name: "slots bad date", method: http.MethodGet, url: api + "/slots?date=15.01.2030", status: http.StatusBadRequest},
		{name: "generate bad duration", method: http.MethodPost, url: api + "/slots/generate",
			body: map[string]interface{}{"startDate": testDate, "endDate": testDate, "slotDurationMinutes": 10}, status: http.StatusBadRequest},
		{name: "generate reversed range", method: http.MethodPost, url: api + "/slots/generate",
			body: map[string]interface{}{"startDate": testDate, "endDate": "2030-01-01"}, status: http.StatusBadRequest},
		{name: "book unknown slot", method: http.MethodPost, url: api + "/appointments",
			body: bookingBody("7b0c3a2e-8a51-4c8e-9e7c-1d2b3c4d5e6f", "a@example.com"), status: http.StatusNotFound},
		{name: "book bad slot id", method: http.MethodPost, url: api + "/appointments",
			body: bookingBody("not-a-uuid", "a@example.com"), status: http.StatusBadRequest},
		{name: "book invalid email", method: http.MethodPost, url: api + "/appointments",
			body: bookingBody("7b0c3a2e-8a51-4c8e-9e7c-1d2b3c4d5e6f", "not-an-email"), status: http.StatusBadRequest},
		{name: "get bad id", method: http.MethodGet, url: api + "/appointments/42", status: http.StatusBadRequest},
		{name: "get unknown", method: http.MethodGet, url: api + "/appointments/7b0c3a2e-8a51-4c8e-9e7c-1d2b3c4d5e6f", status: http.StatusNotFound},
		{name: "cancel unknown", method: http.MethodDelete, url: api + "/appointments/7b0c3a2e-8a51-4c8e-9e7c-1d2b3c4d5e6f", status: http.StatusNotFound},
		{name: "reminder unknown", method: http.MethodPost, url: api + "/appointments/7b0c3a2e-8a51-4c8e-9e7c-1d2b3c4d5e6f/send-reminder", status: http.StatusNotFound},
		{name: "list bad limit", method: http.MethodGet, url: api + "/appointments?limit=5000", status: http.StatusBadRequest},
		{name: "list bad status", method: http.MethodGet, url: api + "/appointments?status=pending", status: http.StatusBadRequest},
		{name: "list bad flag", method: http.MethodGet, url: api + "/appointments?reminderSent=maybe", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, tt.method, tt.url, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health healthHandler.HealthResponse
	decode(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.False(t, health.SchedulerRunning)

	client := &http.Client{Timeout: 5 * time.Second}
	metricsResp, err := client.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)
}
