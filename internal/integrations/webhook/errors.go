package webhook

import "errors"

var (
	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("webhook client: internal error")

	// ErrRejected возвращается, когда получатель отклонил событие (4xx)
	ErrRejected = errors.New("webhook client: event rejected")

	// ErrUnavailable возвращается, когда получатель недоступен (5xx, сеть, таймаут)
	ErrUnavailable = errors.New("webhook client: receiver unavailable")
)
