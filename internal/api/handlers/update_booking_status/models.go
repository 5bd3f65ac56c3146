package update_booking_status

import (
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status string `json:"status"` // CONFIRMED | COMPLETED | CANCELLED
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateStatusRequest) ToServiceRequest(userID string) *models.UpdateStatusRequest {
	return &models.UpdateStatusRequest{
		UserID: userID,
		Status: strings.ToUpper(strings.TrimSpace(r.Status)),
	}
}
