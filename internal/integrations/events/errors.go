package events

import "errors"

var (
	// ErrNoBrokers возвращается, когда не настроен ни один брокер Kafka
	ErrNoBrokers = errors.New("events: no kafka brokers configured")

	// ErrMarshal возвращается при ошибке сериализации события
	ErrMarshal = errors.New("events: failed to marshal event")

	// ErrPublish возвращается при ошибке записи в Kafka
	ErrPublish = errors.New("events: failed to publish event")
)
