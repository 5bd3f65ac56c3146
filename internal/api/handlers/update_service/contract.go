package update_service

import (
	"context"

	"github.com/m04kA/SMC-SchedulingService/internal/service/services/models"
)

type ServiceManager interface {
	Update(ctx context.Context, id string, req *models.UpdateServiceRequest) (*models.ServiceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
