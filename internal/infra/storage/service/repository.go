package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/psqlbuilder"
)

// Repository репозиторий услуг провайдеров
// Недельное расписание хранится в колонке weekly_availability (jsonb)
// lib/pq кодирует []byte как bytea, поэтому json передается строкой
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория услуг
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую услугу
func (r *Repository) Create(ctx context.Context, service *domain.Service) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	availability, err := encodeAvailability(service.WeeklyAvailability)
	if err != nil {
		return nil, fmt.Errorf("%w: Create: %v", ErrEncodeAvailability, err)
	}

	query, args, err := psqlbuilder.Insert("services").
		Columns(
			"provider_id",
			"name",
			"duration_minutes",
			"max_capacity",
			"weekly_availability",
		).
		Values(
			service.ProviderID,
			service.Name,
			service.DurationMinutes,
			service.MaxCapacity,
			string(availability),
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&service.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	service.CreatedAt = createdAt.Time
	service.UpdatedAt = updatedAt.Time

	return service, nil
}

// GetByID получает услугу по ID
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"provider_id",
		"name",
		"duration_minutes",
		"max_capacity",
		"weekly_availability",
		"created_at",
		"updated_at",
	).
		From("services").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var service domain.Service
	var availability []byte
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&service.ID,
		&service.ProviderID,
		&service.Name,
		&service.DurationMinutes,
		&service.MaxCapacity,
		&availability,
		&createdAt,
		&updatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan service: %v", ErrScanRow, err)
	}

	service.WeeklyAvailability, err = decodeAvailability(availability)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - service id=%s: %v", ErrEncodeAvailability, id, err)
	}

	service.CreatedAt = createdAt.Time
	service.UpdatedAt = updatedAt.Time

	return &service, nil
}

// Update обновляет параметры и расписание услуги
func (r *Repository) Update(ctx context.Context, service *domain.Service) (*domain.Service, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	availability, err := encodeAvailability(service.WeeklyAvailability)
	if err != nil {
		return nil, fmt.Errorf("%w: Update: %v", ErrEncodeAvailability, err)
	}

	query, args, err := psqlbuilder.Update("services").
		Set("name", service.Name).
		Set("duration_minutes", service.DurationMinutes).
		Set("max_capacity", service.MaxCapacity).
		Set("weekly_availability", string(availability)).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": service.ID}).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrServiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	service.CreatedAt = createdAt.Time
	service.UpdatedAt = updatedAt.Time

	return service, nil
}

func encodeAvailability(w domain.WeeklyAvailability) ([]byte, error) {
	if w == nil {
		w = domain.WeeklyAvailability{}
	}
	return json.Marshal(w)
}

func decodeAvailability(raw []byte) (domain.WeeklyAvailability, error) {
	w := domain.WeeklyAvailability{}
	if len(raw) == 0 {
		return w, nil
	}
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil, err
	}
	return w, nil
}
