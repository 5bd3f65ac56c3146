package kafka

import "errors"

var (
	// ErrInvalidConfig возвращается при некорректных настройках публикатора
	ErrInvalidConfig = errors.New("kafka publisher: invalid config")

	// ErrPublish возвращается, когда сообщение не удалось опубликовать
	ErrPublish = errors.New("kafka publisher: failed to publish message")
)
