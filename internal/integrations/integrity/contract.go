package integrity

import "context"

// EventPublisher интерфейс публикации событий; реализуется events.Producer
type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, event interface{}) error
}

// MetricsCollector интерфейс для учета нарушений
type MetricsCollector interface {
	ObserveIntegrityViolation(kind string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
