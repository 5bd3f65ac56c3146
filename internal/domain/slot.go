package domain

import (
	"errors"
	"fmt"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ErrInvalidDuration возвращается, когда длительность услуги не положительна
var ErrInvalidDuration = errors.New("domain: service duration must be positive")

// Slot represents a bookable point in time on a given date
// Available is false once the number of active bookings at this time reaches the service capacity
type Slot struct {
	Time      types.TimeString
	Available bool
}

// SlotTimes subdivides the day's intervals into slot start times with a step of durationMinutes
// A slot is emitted while its start is strictly before the interval end, so the last slot
// of an interval may run past it. Times repeated across overlapping intervals are kept once,
// in the order they were first produced
func SlotTimes(intervals []string, durationMinutes int) ([]types.TimeString, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDuration, durationMinutes)
	}

	seen := make(map[types.TimeString]struct{})
	times := make([]types.TimeString, 0)

	for _, interval := range intervals {
		r, err := types.ParseTimeRange(interval)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidAvailability, err)
		}

		end := r.End.Minutes()
		for cur := r.Start.Minutes(); cur < end; cur += durationMinutes {
			t, err := types.NewTimeStringFromMinutes(cur)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			times = append(times, t)
		}
	}

	return times, nil
}
