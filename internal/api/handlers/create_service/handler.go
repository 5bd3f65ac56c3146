package create_service

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/api/handlers"
	"github.com/m04kA/SMC-SchedulingService/internal/api/middleware"
	"github.com/m04kA/SMC-SchedulingService/internal/service/services"
	"github.com/m04kA/SMC-SchedulingService/internal/service/services/models"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingUserID      = "отсутствует ID пользователя"
	msgInvalidService     = "некорректные параметры услуги"
)

type Handler struct {
	service ServiceManager
	logger  Logger
}

func NewHandler(service ServiceManager, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/services
// Провайдером услуги становится пользователь из X-User-ID
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	providerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Warn("POST /services - Missing user ID")
		handlers.RespondUnauthorized(w, msgMissingUserID)
		return
	}

	var req models.CreateServiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /services - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	req.ProviderID = providerID

	created, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidInput) {
			h.logger.Warn("POST /services - Invalid service: provider_id=%s, error=%v", providerID, err)
			handlers.RespondError(w, http.StatusBadRequest, msgInvalidService+": "+errorDetail(err))
			return
		}
		h.logger.Error("POST /services - Failed to create service: provider_id=%s, error=%v", providerID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /services - Service created successfully: service_id=%s, provider_id=%s", created.ID, providerID)
	handlers.RespondJSON(w, http.StatusCreated, created)
}

// errorDetail отрезает префикс sentinel-ошибки, оставляя причину
func errorDetail(err error) string {
	return strings.TrimPrefix(err.Error(), services.ErrInvalidInput.Error()+": ")
}
