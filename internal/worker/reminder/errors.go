package reminder

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("reminder: appointment not found")

	// ErrAppointmentCancelled возвращается при попытке напомнить об отмененной записи
	ErrAppointmentCancelled = errors.New("reminder: appointment is cancelled")

	// ErrAlreadySent возвращается, когда напоминание уже отправлено
	ErrAlreadySent = errors.New("reminder: reminder already sent")

	// ErrInProgress возвращается, когда напоминание по записи отправляется прямо сейчас
	ErrInProgress = errors.New("reminder: reminder is being sent")

	// ErrNotifierFailure возвращается, когда уведомление не доставлено
	ErrNotifierFailure = errors.New("reminder: notifier failed")

	// ErrInternal возвращается при внутренних ошибках
	ErrInternal = errors.New("reminder: internal error")
)

// Значения метки result для метрики напоминаний
const (
	resultSent     = "sent"
	resultFailed   = "failed"
	resultUnmarked = "sent_unmarked"
	resultSkipped  = "skipped"
)
