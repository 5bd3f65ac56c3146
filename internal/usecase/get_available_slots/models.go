package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Request модель запроса на получение слотов
type Request struct {
	ServiceID string // ID услуги
	Date      string // Дата в формате YYYY-MM-DD
}

// Response модель ответа со списком слотов
type Response struct {
	ServiceID string        // ID услуги
	Date      time.Time     // Полночь запрошенного дня в зоне планирования
	Day       domain.DayKey // День недели
	Slots     []domain.Slot // Слоты в порядке генерации, без повторов
}
