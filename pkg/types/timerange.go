package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTimeRange возвращается при некорректном интервале "HH:MM-HH:MM"
var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange интервал времени суток [Start, End)
type TimeRange struct {
	Start TimeString
	End   TimeString
}

// ParseTimeRange парсит интервал вида "09:00-18:00"
// Начало должно быть строго раньше конца
func ParseTimeRange(s string) (TimeRange, error) {
	startStr, endStr, ok := strings.Cut(strings.TrimSpace(s), "-")
	if !ok {
		return TimeRange{}, fmt.Errorf("%w: %q: missing separator", ErrInvalidTimeRange, s)
	}

	start, err := NewTimeStringFromString(startStr)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q: start: %v", ErrInvalidTimeRange, s, err)
	}

	end, err := NewTimeStringFromString(endStr)
	if err != nil {
		return TimeRange{}, fmt.Errorf("%w: %q: end: %v", ErrInvalidTimeRange, s, err)
	}

	if !start.IsBefore(end) {
		return TimeRange{}, fmt.Errorf("%w: %q: start must precede end", ErrInvalidTimeRange, s)
	}

	return TimeRange{Start: start, End: end}, nil
}

// String возвращает интервал в формате "HH:MM-HH:MM"
func (r TimeRange) String() string {
	return r.Start.String() + "-" + r.End.String()
}

// Overlaps возвращает true, если интервалы пересекаются (граничные случаи не считаются)
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.IsBefore(other.End) && other.Start.IsBefore(r.End)
}
