package notifications

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Notifier транспорт доставки событий (HTTP webhook, Kafka)
type Notifier interface {
	Notify(ctx context.Context, recipientID string, event domain.BookingEvent) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// NopNotifier отбрасывает события (driver = none)
type NopNotifier struct{}

// Notify ничего не делает
func (NopNotifier) Notify(context.Context, string, domain.BookingEvent) error {
	return nil
}
