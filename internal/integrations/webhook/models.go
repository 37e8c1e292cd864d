package webhook

// ErrorResponse модель ошибки от получателя
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
