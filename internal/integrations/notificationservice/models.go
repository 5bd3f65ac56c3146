package notificationservice

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// EventMessage модель события бронирования для NotificationService
// Тот же формат публикуется в Kafka
type EventMessage struct {
	EventID     string       `json:"event_id"`
	EventType   string       `json:"event_type"`
	RecipientID string       `json:"recipient_id"`
	OccurredAt  time.Time    `json:"occurred_at"`
	Booking     BookingEntry `json:"booking"`
}

// BookingEntry данные бронирования внутри события
type BookingEntry struct {
	ID                 string     `json:"id"`
	ServiceID          string     `json:"service_id"`
	ClientID           string     `json:"client_id"`
	StartTime          time.Time  `json:"start_time"`
	EndTime            time.Time  `json:"end_time"`
	Status             string     `json:"status"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
}

// ErrorResponse модель ошибки от NotificationService
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewEventMessage конвертирует доменное событие в сообщение для получателя recipientID
func NewEventMessage(recipientID string, event domain.BookingEvent) EventMessage {
	msg := EventMessage{
		EventID:     event.ID,
		EventType:   string(event.Type),
		RecipientID: recipientID,
		OccurredAt:  event.OccurredAt.UTC(),
	}

	if b := event.Booking; b != nil {
		msg.Booking = BookingEntry{
			ID:                 b.ID,
			ServiceID:          b.ServiceID,
			ClientID:           b.ClientID,
			StartTime:          b.StartTime.UTC(),
			EndTime:            b.EndTime.UTC(),
			Status:             string(b.Status),
			CancellationReason: b.CancellationReason,
			CancelledAt:        b.CancelledAt,
		}
	}

	return msg
}
