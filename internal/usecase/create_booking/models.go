package create_booking

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на создание бронирования
type Request struct {
	ServiceID string    // ID услуги
	ClientID  string    // ID клиента
	StartTime time.Time // Абсолютное время начала
}

// Response созданное бронирование и событие о нем
// Доставка события (уведомление провайдера) решается вызывающей стороной
type Response struct {
	Booking *domain.Booking
	Event   domain.BookingEvent
}

// Options настройки допуска
type Options struct {
	// Location зона, в которой проверяется выравнивание по слотам
	Location *time.Location
	// EnforceSlotAlignment разрешает бронировать только время сгенерированных слотов
	EnforceSlotAlignment bool
}
