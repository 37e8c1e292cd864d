package integrity

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/events"
)

const defaultPublishTimeout = 5 * time.Second

// Reporter передает нарушения целостности операторам:
// лог уровня error, счетчик Prometheus и событие в Kafka, если publisher задан
type Reporter struct {
	publisher EventPublisher
	topic     string
	metrics   MetricsCollector
	logger    Logger
}

// NewReporter создает Reporter; publisher может быть nil
func NewReporter(publisher EventPublisher, topic string, metrics MetricsCollector, logger Logger) *Reporter {
	return &Reporter{
		publisher: publisher,
		topic:     topic,
		metrics:   metrics,
		logger:    logger,
	}
}

// Report фиксирует нарушение. Ошибки доставки события только логируются
func (r *Reporter) Report(ctx context.Context, v domain.Inconsistency) {
	if v.DetectedAt.IsZero() {
		v.DetectedAt = time.Now().UTC()
	}

	r.logger.Error("INTEGRITY VIOLATION kind=%s appointment_id=%s time_slot_id=%s reason=%s",
		v.Kind, v.AppointmentID, v.TimeSlotID, v.Reason)

	if r.metrics != nil {
		r.metrics.ObserveIntegrityViolation(string(v.Kind))
	}

	if r.publisher == nil || r.topic == "" {
		return
	}

	// Событие публикуется даже если исходный запрос уже отменен
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultPublishTimeout)
	defer cancel()

	event := events.IntegrityEvent{
		Type:          events.TypeIntegrityViolation,
		Kind:          string(v.Kind),
		AppointmentID: v.AppointmentID.String(),
		TimeSlotID:    v.TimeSlotID.String(),
		Reason:        v.Reason,
		DetectedAt:    v.DetectedAt,
	}
	if err := r.publisher.Publish(pubCtx, r.topic, event.AppointmentID, event); err != nil {
		r.logger.Error("Report: failed to publish integrity event: appointment_id=%s, error=%v", v.AppointmentID, err)
	}
}
