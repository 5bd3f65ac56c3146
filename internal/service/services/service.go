package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
	"github.com/m04kA/SMC-SchedulingService/internal/service/services/models"
)

// Service сервис для управления услугами провайдеров
type Service struct {
	repo   ServiceRepository
	logger Logger
}

// NewService создает новый экземпляр сервиса услуг
func NewService(repo ServiceRepository, logger Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create создает услугу от имени провайдера
func (s *Service) Create(ctx context.Context, req *models.CreateServiceRequest) (*models.ServiceResponse, error) {
	s.logger.Info("Create: creating service for provider=%s", req.ProviderID)

	if strings.TrimSpace(req.ProviderID) == "" {
		return nil, fmt.Errorf("%w: providerId is required", ErrInvalidInput)
	}

	service := &domain.Service{
		ProviderID:         req.ProviderID,
		Name:               strings.TrimSpace(req.Name),
		DurationMinutes:    req.DurationMinutes,
		MaxCapacity:        req.MaxCapacity,
		WeeklyAvailability: models.ToDomainAvailability(req.WeeklyAvailability),
	}

	if err := s.validate("Create", service); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, service)
	if err != nil {
		s.logger.Error("Create: failed to create service for provider=%s: %v", req.ProviderID, err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: successfully created service id=%s for provider=%s", created.ID, req.ProviderID)
	return models.FromDomainService(created), nil
}

// GetByID получает услугу по ID
func (s *Service) GetByID(ctx context.Context, id string) (*models.ServiceResponse, error) {
	service, err := s.load(ctx, "GetByID", id)
	if err != nil {
		return nil, err
	}
	return models.FromDomainService(service), nil
}

// Update частично обновляет услугу, доступно только ее провайдеру
// Изменение расписания не затрагивает существующие бронирования
func (s *Service) Update(ctx context.Context, id string, req *models.UpdateServiceRequest) (*models.ServiceResponse, error) {
	s.logger.Info("Update: updating service id=%s by user=%s", id, req.UserID)

	service, err := s.load(ctx, "Update", id)
	if err != nil {
		return nil, err
	}

	if service.ProviderID != req.UserID {
		s.logger.Warn("Update: access denied for user=%s to service id=%s", req.UserID, id)
		return nil, ErrAccessDenied
	}

	if req.Name != nil {
		service.Name = strings.TrimSpace(*req.Name)
	}
	if req.DurationMinutes != nil {
		service.DurationMinutes = *req.DurationMinutes
	}
	if req.MaxCapacity != nil {
		service.MaxCapacity = *req.MaxCapacity
	}
	if req.WeeklyAvailability != nil {
		service.WeeklyAvailability = models.ToDomainAvailability(*req.WeeklyAvailability)
	}

	if err := s.validate("Update", service); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, service)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			return nil, ErrServiceNotFound
		}
		s.logger.Error("Update: failed to update service id=%s: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Update: successfully updated service id=%s", id)
	return models.FromDomainService(updated), nil
}

func (s *Service) load(ctx context.Context, op, id string) (*domain.Service, error) {
	service, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			s.logger.Warn("%s: service id=%s not found", op, id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("%s: failed to get service id=%s: %v", op, id, err)
		return nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
	return service, nil
}

func (s *Service) validate(op string, service *domain.Service) error {
	if service.Name == "" || len(service.Name) > domain.MaxServiceNameLength {
		return fmt.Errorf("%w: name must be 1..%d characters", ErrInvalidInput, domain.MaxServiceNameLength)
	}

	if err := domain.ValidateServiceParams(service.DurationMinutes, service.MaxCapacity); err != nil {
		s.logger.Warn("%s: invalid service params: %v", op, err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := service.WeeklyAvailability.Validate(); err != nil {
		s.logger.Warn("%s: invalid weekly availability: %v", op, err)
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Пересечения допустимы, дубликаты слотов схлопываются при расчете
	if days := service.WeeklyAvailability.OverlappingDays(); len(days) > 0 {
		s.logger.Warn("%s: overlapping availability intervals on days=%v", op, days)
	}

	return nil
}
