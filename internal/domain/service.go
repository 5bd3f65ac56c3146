package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/pkg/types"
)

// ErrInvalidAvailability возвращается при некорректном недельном расписании
var ErrInvalidAvailability = errors.New("domain: invalid weekly availability")

// Service represents a bookable offering published by a provider
type Service struct {
	ID                 string
	ProviderID         string
	Name               string
	DurationMinutes    int
	MaxCapacity        int
	WeeklyAvailability WeeklyAvailability
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// DayKey lower-case three letter day of week: sun, mon, ... sat
type DayKey string

const (
	Sunday    DayKey = "sun"
	Monday    DayKey = "mon"
	Tuesday   DayKey = "tue"
	Wednesday DayKey = "wed"
	Thursday  DayKey = "thu"
	Friday    DayKey = "fri"
	Saturday  DayKey = "sat"
)

// dayKeys indexed by time.Weekday
var dayKeys = [7]DayKey{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

// IsValid returns true for the seven known day keys
func (d DayKey) IsValid() bool {
	for _, k := range dayKeys {
		if k == d {
			return true
		}
	}
	return false
}

// WeeklyAvailability weekly rules: day key -> intervals "HH:MM-HH:MM"
// An absent key or an empty list means the service is closed that day
type WeeklyAvailability map[DayKey][]string

// Intervals returns the raw intervals configured for the day (nil if closed)
func (w WeeklyAvailability) Intervals(day DayKey) []string {
	if w == nil {
		return nil
	}
	return w[day]
}

// Normalize returns a copy with lower-case trimmed day keys and trimmed intervals
// Keys that collapse to the same day are merged in sorted order of the raw keys.
// Days with no intervals are dropped
func (w WeeklyAvailability) Normalize() WeeklyAvailability {
	raw := make([]DayKey, 0, len(w))
	for day := range w {
		raw = append(raw, day)
	}
	sort.Slice(raw, func(i, j int) bool { return raw[i] < raw[j] })

	out := make(WeeklyAvailability, len(w))
	for _, day := range raw {
		key := DayKey(strings.ToLower(strings.TrimSpace(string(day))))
		for _, interval := range w[day] {
			out[key] = append(out[key], strings.TrimSpace(interval))
		}
	}
	for day, intervals := range out {
		if len(intervals) == 0 {
			delete(out, day)
		}
	}
	return out
}

// Validate checks day keys and interval format. Overlapping intervals are allowed
func (w WeeklyAvailability) Validate() error {
	for day, intervals := range w {
		if !day.IsValid() {
			return fmt.Errorf("%w: unknown day key %q", ErrInvalidAvailability, day)
		}
		for _, interval := range intervals {
			if _, err := types.ParseTimeRange(interval); err != nil {
				return fmt.Errorf("%w: %s: %v", ErrInvalidAvailability, day, err)
			}
		}
	}
	return nil
}

// OverlappingDays returns days (sorted) where configured intervals intersect each other
func (w WeeklyAvailability) OverlappingDays() []DayKey {
	var days []DayKey
	for day, intervals := range w {
		ranges := make([]types.TimeRange, 0, len(intervals))
		for _, interval := range intervals {
			r, err := types.ParseTimeRange(interval)
			if err != nil {
				continue
			}
			ranges = append(ranges, r)
		}
		if hasOverlap(ranges) {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days
}

func hasOverlap(ranges []types.TimeRange) bool {
	for i := range ranges {
		for j := i + 1; j < len(ranges); j++ {
			if ranges[i].Overlaps(ranges[j]) {
				return true
			}
		}
	}
	return false
}

// ValidateServiceParams checks numeric service parameters
func ValidateServiceParams(durationMinutes, maxCapacity int) error {
	if durationMinutes < MinServiceDurationMinutes || durationMinutes > MaxServiceDurationMinutes {
		return fmt.Errorf("durationMinutes must be between %d and %d", MinServiceDurationMinutes, MaxServiceDurationMinutes)
	}
	if maxCapacity < MinCapacity || maxCapacity > MaxCapacity {
		return fmt.Errorf("maxCapacity must be between %d and %d", MinCapacity, MaxCapacity)
	}
	return nil
}
