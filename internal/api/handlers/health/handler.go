package health

import (
	"net/http"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
)

// SchedulerStatus состояние планировщика напоминаний
type SchedulerStatus interface {
	Running() bool
	LastTickAt() time.Time
}

// HealthResponse HTTP response model
type HealthResponse struct {
	Status            string     `json:"status"`
	SchedulerRunning  bool       `json:"schedulerRunning"`
	SchedulerLastTick *time.Time `json:"schedulerLastTick,omitempty"`
}

type Handler struct {
	scheduler SchedulerStatus
}

func NewHandler(scheduler SchedulerStatus) *Handler {
	return &Handler{scheduler: scheduler}
}

// Handle GET /healthz
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}

	if h.scheduler != nil {
		resp.SchedulerRunning = h.scheduler.Running()
		if last := h.scheduler.LastTickAt(); !last.IsZero() {
			resp.SchedulerLastTick = &last
		}
	}

	handlers.RespondJSON(w, http.StatusOK, resp)
}
