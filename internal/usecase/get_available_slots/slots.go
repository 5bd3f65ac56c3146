package get_available_slots

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// countByStartTime группирует активные бронирования по времени начала (час:минута в loc)
// Бронирование учитывается только в слоте, время начала которого совпадает с его началом
func countByStartTime(bookings []*domain.Booking, loc *time.Location) map[types.TimeString]int {
	counts := make(map[types.TimeString]int, len(bookings))
	for _, booking := range bookings {
		if !booking.IsActive() {
			continue
		}
		counts[types.NewTimeString(booking.StartTime.In(loc))]++
	}
	return counts
}

// markAvailability помечает слот недоступным, когда число бронирований достигло вместимости
func markAvailability(times []types.TimeString, counts map[types.TimeString]int, maxCapacity int) []domain.Slot {
	slots := make([]domain.Slot, len(times))
	for i, t := range times {
		slots[i] = domain.Slot{
			Time:      t,
			Available: counts[t] < maxCapacity,
		}
	}
	return slots
}
