package domain

import "time"

// EventType type of a booking lifecycle event
type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingUpdated   EventType = "booking.status_changed"
)

// BookingEvent fact about a booking that the provider may be notified about
// Delivery is up to the caller that receives the event
type BookingEvent struct {
	ID          string
	Type        EventType
	RecipientID string
	Booking     *Booking
	OccurredAt  time.Time
}
