package claims

import "errors"

var (
	// ErrClaimStore возвращается при ошибке хранилища захватов
	ErrClaimStore = errors.New("claims: store error")

	// ErrEmptyKey возвращается при пустом ключе захвата
	ErrEmptyKey = errors.New("claims: empty key")
)
