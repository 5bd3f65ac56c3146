package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if strings.TrimSpace(req.ServiceID) == "" {
		return fmt.Errorf("%w: serviceId is required", ErrInvalidInput)
	}

	if strings.TrimSpace(req.ClientID) == "" {
		return fmt.Errorf("%w: clientId is required", ErrInvalidInput)
	}

	if req.StartTime.IsZero() {
		return fmt.Errorf("%w: startTime is required", ErrInvalidInput)
	}

	return nil
}

// validateSlotAlignment проверяет, что start совпадает с одним из слотов своего дня в loc
func validateSlotAlignment(service *domain.Service, start time.Time, loc *time.Location) error {
	local := start.In(loc)
	if local.Second() != 0 || local.Nanosecond() != 0 {
		return fmt.Errorf("%w: %s has non-zero seconds", ErrInvalidTimeSlot, local.Format(time.RFC3339))
	}

	day := domain.DayKeyOf(local)
	times, err := domain.SlotTimes(service.WeeklyAvailability.Intervals(day), service.DurationMinutes)
	if err != nil {
		return fmt.Errorf("%w: failed to generate slots: %v", ErrInternal, err)
	}

	requested := types.NewTimeString(local)
	for _, t := range times {
		if t == requested {
			return nil
		}
	}

	return fmt.Errorf("%w: %s on %s", ErrInvalidTimeSlot, requested, day)
}
