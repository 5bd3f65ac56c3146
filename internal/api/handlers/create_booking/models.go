package create_booking

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	createBooking "github.com/m04kA/SMC-SchedulingService/internal/usecase/create_booking"
)

var (
	errInvalidServiceID = errors.New("invalid service id")
	errInvalidStartTime = errors.New("invalid start time")
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceID string `json:"serviceId"`
	StartTime string `json:"startTime"` // RFC 3339, "2024-01-15T09:00:00+03:00"
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest(clientID string) (*createBooking.Request, error) {
	if _, err := uuid.Parse(r.ServiceID); err != nil {
		return nil, errInvalidServiceID
	}

	startTime, err := time.Parse(time.RFC3339, strings.TrimSpace(r.StartTime))
	if err != nil {
		return nil, errInvalidStartTime
	}

	return &createBooking.Request{
		ServiceID: r.ServiceID,
		ClientID:  clientID,
		StartTime: startTime,
	}, nil
}
