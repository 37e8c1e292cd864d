package notifier

import "errors"

var (
	// ErrInvalidMessage возвращается, когда письмо не может быть сформировано
	ErrInvalidMessage = errors.New("notifier: invalid message")

	// ErrTemplate возвращается при ошибке рендеринга шаблона
	ErrTemplate = errors.New("notifier: template error")

	// ErrSend возвращается при ошибке доставки уведомления
	ErrSend = errors.New("notifier: send failed")

	// ErrUnknownProvider возвращается при неизвестном провайдере
	ErrUnknownProvider = errors.New("notifier: unknown provider")
)
