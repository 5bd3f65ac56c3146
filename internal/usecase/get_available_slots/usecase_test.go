package get_available_slots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
)

var testLoc = time.FixedZone("UTC+3", 3*3600)

type fakeServiceRepo struct {
	services map[string]*domain.Service
	err      error
}

func (f *fakeServiceRepo) GetByID(_ context.Context, id string) (*domain.Service, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.services[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	return s, nil
}

type fakeBookingRepo struct {
	bookings []*domain.Booking
	calls    int
	from, to time.Time
	err      error
}

func (f *fakeBookingRepo) GetByServiceAndDateRange(_ context.Context, serviceID string, from, to time.Time) ([]*domain.Booking, error) {
	f.calls++
	f.from, f.to = from, to
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*domain.Booking, 0)
	for _, b := range f.bookings {
		if b.ServiceID == serviceID && !b.IsCancelled() && !b.StartTime.Before(from) && !b.StartTime.After(to) {
			out = append(out, b)
		}
	}
	return out, nil
}

type fakeMetrics struct {
	observed []int
}

func (m *fakeMetrics) ObserveSlots(count int) {
	m.observed = append(m.observed, count)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newService(duration, capacity int, availability domain.WeeklyAvailability) *domain.Service {
	return &domain.Service{
		ID:                 "svc-1",
		ProviderID:         "provider-1",
		Name:               "Haircut",
		DurationMinutes:    duration,
		MaxCapacity:        capacity,
		WeeklyAvailability: availability,
	}
}

func bookingAt(date string, hour, minute, duration int, status domain.BookingStatus) *domain.Booking {
	day, err := domain.ParseDate(date, testLoc)
	if err != nil {
		panic(err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, testLoc)
	return &domain.Booking{
		ID:        "b-" + start.Format("1504"),
		ServiceID: "svc-1",
		ClientID:  "client-1",
		StartTime: start,
		EndTime:   start.Add(time.Duration(duration) * time.Minute),
		Status:    status,
	}
}

func newUseCase(svc *domain.Service, bookings *fakeBookingRepo) (*UseCase, *fakeMetrics) {
	m := &fakeMetrics{}
	services := &fakeServiceRepo{services: map[string]*domain.Service{svc.ID: svc}}
	return NewUseCase(services, bookings, testLoc, m, nopLogger{}), m
}

// 2025-12-01 is a Monday
const monday = "2025-12-01"

func TestExecute_HourlySlotsWithBooking(t *testing.T) {
	svc := newService(60, 1, domain.WeeklyAvailability{domain.Monday: {"09:00-11:00"}})
	bookings := &fakeBookingRepo{}
	uc, m := newUseCase(svc, bookings)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
	require.NoError(t, err)
	assert.Equal(t, []domain.Slot{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: true},
	}, resp.Slots)

	bookings.bookings = append(bookings.bookings, bookingAt(monday, 9, 0, 60, domain.StatusConfirmed))

	resp, err = uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
	require.NoError(t, err)
	assert.Equal(t, []domain.Slot{
		{Time: "09:00", Available: false},
		{Time: "10:00", Available: true},
	}, resp.Slots)
	assert.Equal(t, domain.Monday, resp.Day)
	assert.Equal(t, []int{2, 2}, m.observed)
}

func TestExecute_SlotCounts(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		interval string
		want     []string
	}{
		{"exact fit", 90, "09:00-10:30", []string{"09:00"}},
		{"overshoot", 45, "09:00-10:00", []string{"09:00", "09:45"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(tt.duration, 1, domain.WeeklyAvailability{domain.Monday: {tt.interval}})
			uc, _ := newUseCase(svc, &fakeBookingRepo{})

			resp, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
			require.NoError(t, err)

			got := make([]string, 0, len(resp.Slots))
			for _, s := range resp.Slots {
				got = append(got, s.Time.String())
				assert.True(t, s.Available)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecute_Deterministic(t *testing.T) {
	svc := newService(30, 2, domain.WeeklyAvailability{domain.Monday: {"13:00-15:00", "09:00-12:00", "10:00-14:00"}})
	bookings := &fakeBookingRepo{bookings: []*domain.Booking{
		bookingAt(monday, 9, 30, 30, domain.StatusPending),
		bookingAt(monday, 9, 30, 30, domain.StatusConfirmed),
		bookingAt(monday, 13, 0, 30, domain.StatusCompleted),
	}}
	uc, _ := newUseCase(svc, bookings)

	first, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
		require.NoError(t, err)
		assert.Equal(t, first.Slots, again.Slots)
	}

	seen := make(map[string]bool)
	for _, s := range first.Slots {
		assert.False(t, seen[s.Time.String()], "duplicate %s", s.Time)
		seen[s.Time.String()] = true
	}
	assert.Equal(t, "13:00", first.Slots[0].Time.String())
	assert.Len(t, first.Slots, 4+6+2)
}

func TestExecute_CapacityAndCancellation(t *testing.T) {
	svc := newService(60, 2, domain.WeeklyAvailability{domain.Monday: {"09:00-10:00"}})
	first := bookingAt(monday, 9, 0, 60, domain.StatusConfirmed)
	second := bookingAt(monday, 9, 0, 60, domain.StatusPending)
	bookings := &fakeBookingRepo{}
	uc, _ := newUseCase(svc, bookings)

	availability := func() bool {
		resp, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
		require.NoError(t, err)
		require.Len(t, resp.Slots, 1)
		return resp.Slots[0].Available
	}

	assert.True(t, availability())

	bookings.bookings = []*domain.Booking{first}
	assert.True(t, availability())

	bookings.bookings = []*domain.Booking{first, second}
	assert.False(t, availability())

	second.Status = domain.StatusCancelled
	assert.True(t, availability())
}

func TestExecute_OnlyExactStartTimeCounts(t *testing.T) {
	svc := newService(60, 1, domain.WeeklyAvailability{domain.Monday: {"09:00-11:00"}})
	bookings := &fakeBookingRepo{bookings: []*domain.Booking{
		bookingAt(monday, 9, 30, 60, domain.StatusConfirmed),
	}}
	uc, _ := newUseCase(svc, bookings)

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
	require.NoError(t, err)
	assert.Equal(t, []domain.Slot{
		{Time: "09:00", Available: true},
		{Time: "10:00", Available: true},
	}, resp.Slots)
}

func TestExecute_ClosedDaySkipsBookingLookup(t *testing.T) {
	tests := []struct {
		name         string
		availability domain.WeeklyAvailability
	}{
		{"absent day", domain.WeeklyAvailability{domain.Tuesday: {"09:00-11:00"}}},
		{"empty day", domain.WeeklyAvailability{domain.Monday: {}}},
		{"no schedule", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookings := &fakeBookingRepo{}
			uc, m := newUseCase(newService(60, 1, tt.availability), bookings)

			resp, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
			require.NoError(t, err)
			assert.NotNil(t, resp.Slots)
			assert.Empty(t, resp.Slots)
			assert.Zero(t, bookings.calls)
			assert.Equal(t, []int{0}, m.observed)
		})
	}
}

func TestExecute_DayWindowInScheduleLocation(t *testing.T) {
	svc := newService(60, 1, domain.WeeklyAvailability{domain.Monday: {"09:00-11:00"}})
	bookings := &fakeBookingRepo{}
	uc, _ := newUseCase(svc, bookings)

	_, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, testLoc), bookings.from)
	assert.Equal(t, time.Date(2025, 12, 1, 23, 59, 59, 999999999, testLoc), bookings.to)
}

func TestExecute_BookingStoredInOtherZone(t *testing.T) {
	svc := newService(60, 1, domain.WeeklyAvailability{domain.Monday: {"09:00-11:00"}})
	b := bookingAt(monday, 10, 0, 60, domain.StatusConfirmed)
	b.StartTime = b.StartTime.UTC()
	uc, _ := newUseCase(svc, &fakeBookingRepo{bookings: []*domain.Booking{b}})

	resp, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
	require.NoError(t, err)
	assert.True(t, resp.Slots[0].Available)
	assert.False(t, resp.Slots[1].Available)
}

func TestExecute_Errors(t *testing.T) {
	t.Run("invalid date", func(t *testing.T) {
		uc, _ := newUseCase(newService(60, 1, nil), &fakeBookingRepo{})
		_, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: "01.12.2025"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("missing service id", func(t *testing.T) {
		uc, _ := newUseCase(newService(60, 1, nil), &fakeBookingRepo{})
		_, err := uc.Execute(context.Background(), &Request{Date: monday})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown service", func(t *testing.T) {
		uc, _ := newUseCase(newService(60, 1, nil), &fakeBookingRepo{})
		_, err := uc.Execute(context.Background(), &Request{ServiceID: "missing", Date: monday})
		assert.ErrorIs(t, err, ErrServiceNotFound)
	})

	t.Run("service store failure", func(t *testing.T) {
		uc := NewUseCase(&fakeServiceRepo{err: errors.New("connection reset")}, &fakeBookingRepo{}, testLoc, nil, nopLogger{})
		_, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("malformed stored interval", func(t *testing.T) {
		svc := newService(60, 1, domain.WeeklyAvailability{domain.Monday: {"9am-11am"}})
		bookings := &fakeBookingRepo{}
		uc, _ := newUseCase(svc, bookings)
		_, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
		assert.ErrorIs(t, err, ErrInternal)
		assert.Zero(t, bookings.calls)
	})

	t.Run("non-positive duration", func(t *testing.T) {
		svc := newService(0, 1, domain.WeeklyAvailability{domain.Monday: {"09:00-11:00"}})
		uc, _ := newUseCase(svc, &fakeBookingRepo{})
		_, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
		assert.ErrorIs(t, err, ErrInternal)
	})

	t.Run("booking store failure", func(t *testing.T) {
		svc := newService(60, 1, domain.WeeklyAvailability{domain.Monday: {"09:00-11:00"}})
		uc, _ := newUseCase(svc, &fakeBookingRepo{err: errors.New("timeout")})
		_, err := uc.Execute(context.Background(), &Request{ServiceID: "svc-1", Date: monday})
		assert.ErrorIs(t, err, ErrInternal)
	})
}
