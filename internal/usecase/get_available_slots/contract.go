package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// ServiceRepository интерфейс репозитория услуг
type ServiceRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
}

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	// GetByServiceAndDateRange получает активные бронирования услуги, начинающиеся в [from, to]
	GetByServiceAndDateRange(ctx context.Context, serviceID string, from, to time.Time) ([]*domain.Booking, error)
}

// Metrics интерфейс сбора метрик (может быть nil)
type Metrics interface {
	ObserveSlots(count int)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
