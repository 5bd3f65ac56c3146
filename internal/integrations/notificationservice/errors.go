package notificationservice

import "errors"

var (
	// ErrRecipientNotFound возвращается, когда получатель неизвестен NotificationService
	ErrRecipientNotFound = errors.New("notificationservice client: recipient not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("notificationservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("notificationservice client: invalid response")
)
