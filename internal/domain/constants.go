package domain

// Business validation constants
const (
	MinServiceDurationMinutes   = 1
	MaxServiceDurationMinutes   = 1440 // 24 hours
	MinCapacity                 = 1
	MaxCapacity                 = 1000
	MaxServiceNameLength        = 200
	MaxCancellationReasonLength = 500
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// ActiveStatuses статусы, которые занимают вместимость услуги
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusConfirmed,
	StatusCompleted,
}
