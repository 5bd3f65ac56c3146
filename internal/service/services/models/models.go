package models

import (
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// CreateServiceRequest запрос на создание услуги
type CreateServiceRequest struct {
	ProviderID         string              `json:"-"`
	Name               string              `json:"name"`
	DurationMinutes    int                 `json:"durationMinutes"`
	MaxCapacity        int                 `json:"maxCapacity"`
	WeeklyAvailability map[string][]string `json:"weeklyAvailability"`
}

// UpdateServiceRequest запрос на частичное обновление услуги
// nil поля не изменяются
type UpdateServiceRequest struct {
	UserID             string               `json:"-"`
	Name               *string              `json:"name,omitempty"`
	DurationMinutes    *int                 `json:"durationMinutes,omitempty"`
	MaxCapacity        *int                 `json:"maxCapacity,omitempty"`
	WeeklyAvailability *map[string][]string `json:"weeklyAvailability,omitempty"`
}

// ServiceResponse ответ с данными услуги
type ServiceResponse struct {
	ID                 string              `json:"id"`
	ProviderID         string              `json:"providerId"`
	Name               string              `json:"name"`
	DurationMinutes    int                 `json:"durationMinutes"`
	MaxCapacity        int                 `json:"maxCapacity"`
	WeeklyAvailability map[string][]string `json:"weeklyAvailability"`
	CreatedAt          time.Time           `json:"createdAt"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

// FromDomainService конвертирует domain модель в DTO
func FromDomainService(s *domain.Service) *ServiceResponse {
	if s == nil {
		return nil
	}

	availability := make(map[string][]string, len(s.WeeklyAvailability))
	for day, intervals := range s.WeeklyAvailability {
		availability[string(day)] = append([]string(nil), intervals...)
	}

	return &ServiceResponse{
		ID:                 s.ID,
		ProviderID:         s.ProviderID,
		Name:               s.Name,
		DurationMinutes:    s.DurationMinutes,
		MaxCapacity:        s.MaxCapacity,
		WeeklyAvailability: availability,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// ToDomainAvailability конвертирует расписание из запроса в domain модель
func ToDomainAvailability(raw map[string][]string) domain.WeeklyAvailability {
	w := make(domain.WeeklyAvailability, len(raw))
	for day, intervals := range raw {
		w[domain.DayKey(day)] = append(w[domain.DayKey(day)], intervals...)
	}
	return w.Normalize()
}
