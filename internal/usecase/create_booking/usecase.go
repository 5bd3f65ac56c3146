package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
	"github.com/m04kA/SMC-SchedulingService/pkg/metrics"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// maxAttempts количество попыток допуска при конфликте транзакций
const maxAttempts = 2

// UseCase use case для создания бронирования (допуск по вместимости)
type UseCase struct {
	serviceRepo  ServiceRepository
	bookingRepo  BookingRepository
	txManager    TransactionManager
	metrics      Metrics
	timeProvider TimeProvider
	options      Options
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	serviceRepo ServiceRepository,
	bookingRepo BookingRepository,
	txManager TransactionManager,
	metrics Metrics,
	options Options,
	logger Logger,
) *UseCase {
	if options.Location == nil {
		options.Location = time.Local
	}
	return &UseCase{
		serviceRepo:  serviceRepo,
		bookingRepo:  bookingRepo,
		txManager:    txManager,
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		options:      options,
		logger:       logger,
	}
}

// Execute выполняет use case создания бронирования
// Подсчет пересечений и вставка выполняются в одной транзакции под advisory-блокировкой услуги,
// поэтому конкурентные запросы не превышают вместимость
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: client=%s, service=%s, start=%s",
		req.ClientID, req.ServiceID, req.StartTime.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем услугу
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Warn("CreateBooking: service id=%s not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("CreateBooking: failed to get service id=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	if err := domain.ValidateServiceParams(service.DurationMinutes, service.MaxCapacity); err != nil {
		uc.logger.Error("CreateBooking: service id=%s has invalid parameters: %v", service.ID, err)
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	// 3. Опционально проверяем совпадение со слотом
	if uc.options.EnforceSlotAlignment {
		if err := validateSlotAlignment(service, req.StartTime, uc.options.Location); err != nil {
			uc.logger.Warn("CreateBooking: slot alignment failed: %v", err)
			return nil, err
		}
	}

	start := req.StartTime
	end := start.Add(time.Duration(service.DurationMinutes) * time.Minute)

	// 4. Допуск с одной повторной попыткой при конфликте (deadlock, уникальный ключ)
	var created *domain.Booking
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		created, err = uc.admit(ctx, service, req.ClientID, start, end)
		if err == nil {
			break
		}
		if !errors.Is(err, txmanager.ErrConcurrencyConflict) {
			break
		}
		uc.logger.Warn("CreateBooking: concurrency conflict on service=%s (attempt %d/%d): %v",
			service.ID, attempt, maxAttempts, err)
		uc.observe(metrics.AdmissionConflictRetry)
	}

	if err != nil {
		switch {
		case errors.Is(err, ErrCapacityExceeded):
			uc.observe(metrics.AdmissionCapacityExceeded)
			return nil, ErrCapacityExceeded
		case errors.Is(err, txmanager.ErrConcurrencyConflict):
			// После повторной попытки конкурент все еще держит вместимость
			uc.observe(metrics.AdmissionCapacityExceeded)
			return nil, ErrCapacityExceeded
		default:
			uc.logger.Error("CreateBooking: admission failed for service=%s: %v", service.ID, err)
			uc.observe(metrics.AdmissionFailed)
			if errors.Is(err, ErrInternal) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}

	uc.observe(metrics.AdmissionAdmitted)
	uc.logger.Info("CreateBooking: successfully created booking id=%s for service=%s", created.ID, service.ID)

	return &Response{
		Booking: created,
		Event: domain.BookingEvent{
			ID:          uuid.NewString(),
			Type:        domain.EventBookingCreated,
			RecipientID: service.ProviderID,
			Booking:     created,
			OccurredAt:  uc.timeProvider.Now(),
		},
	}, nil
}

// admit одна попытка допуска в транзакции
// Ошибки репозиториев оборачиваются через %w, чтобы txmanager распознал конфликт
func (uc *UseCase) admit(ctx context.Context, service *domain.Service, clientID string, start, end time.Time) (*domain.Booking, error) {
	var result *domain.Booking

	err := uc.txManager.Do(ctx, func(txCtx context.Context) error {
		// 4.1. Блокируем услугу до конца транзакции
		if err := uc.bookingRepo.LockService(txCtx, service.ID); err != nil {
			return fmt.Errorf("%w: failed to lock service: %w", ErrInternal, err)
		}

		// 4.2. Считаем пересекающиеся активные бронирования
		overlapping, err := uc.bookingRepo.CountOverlapping(txCtx, service.ID, start, end)
		if err != nil {
			return fmt.Errorf("%w: failed to count overlapping bookings: %w", ErrInternal, err)
		}

		if overlapping >= service.MaxCapacity {
			uc.logger.Warn("CreateBooking: capacity exceeded for service=%s at %s, %d/%d taken",
				service.ID, start.Format(time.RFC3339), overlapping, service.MaxCapacity)
			return ErrCapacityExceeded
		}

		uc.logger.Info("CreateBooking: capacity available for service=%s, %d/%d taken",
			service.ID, overlapping, service.MaxCapacity)

		// 4.3. Создаем бронирование в статусе PENDING
		created, err := uc.bookingRepo.Create(txCtx, &domain.Booking{
			ServiceID: service.ID,
			ClientID:  clientID,
			StartTime: start,
			EndTime:   end,
			Status:    domain.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("%w: failed to create booking: %w", ErrInternal, err)
		}

		result = created
		return nil
	})

	return result, err
}

func (uc *UseCase) observe(outcome string) {
	if uc.metrics != nil {
		uc.metrics.ObserveAdmission(outcome)
	}
}
