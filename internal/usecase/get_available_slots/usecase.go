package get_available_slots

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
)

// UseCase use case для получения слотов услуги на дату
// Результат каждый раз считается заново, ничего не кэшируется
type UseCase struct {
	serviceRepo ServiceRepository
	bookingRepo BookingRepository
	location    *time.Location
	metrics     Metrics
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
// loc зона, в которой интерпретируются дата запроса и время слотов
func NewUseCase(
	serviceRepo ServiceRepository,
	bookingRepo BookingRepository,
	loc *time.Location,
	metrics Metrics,
	logger Logger,
) *UseCase {
	if loc == nil {
		loc = time.Local
	}
	return &UseCase{
		serviceRepo: serviceRepo,
		bookingRepo: bookingRepo,
		location:    loc,
		metrics:     metrics,
		logger:      logger,
	}
}

// Execute выполняет use case получения слотов
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("GetAvailableSlots: service=%s, date=%s", req.ServiceID, req.Date)

	// 1. Валидация входных данных
	date, err := uc.validateRequest(req)
	if err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем услугу
	service, err := uc.serviceRepo.GetByID(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, serviceRepo.ErrServiceNotFound) {
			uc.logger.Warn("GetAvailableSlots: service id=%s not found", req.ServiceID)
			return nil, ErrServiceNotFound
		}
		uc.logger.Error("GetAvailableSlots: failed to get service id=%s: %v", req.ServiceID, err)
		return nil, fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
	}

	day := domain.DayKeyOf(date)
	response := &Response{
		ServiceID: service.ID,
		Date:      date,
		Day:       day,
		Slots:     []domain.Slot{},
	}

	// 3. Выходной день: бронирования не запрашиваем
	intervals := service.WeeklyAvailability.Intervals(day)
	if len(intervals) == 0 {
		uc.logger.Info("GetAvailableSlots: service id=%s is closed on %s (%s)", service.ID, req.Date, day)
		uc.observe(0)
		return response, nil
	}

	// 4. Делим интервалы дня на слоты
	times, err := domain.SlotTimes(intervals, service.DurationMinutes)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: service id=%s has invalid schedule: %v", service.ID, err)
		return nil, fmt.Errorf("%w: failed to generate slots: %v", ErrInternal, err)
	}

	// 5. Получаем активные бронирования за весь день
	from, to := domain.DayBounds(date)
	bookings, err := uc.bookingRepo.GetByServiceAndDateRange(ctx, service.ID, from, to)
	if err != nil {
		uc.logger.Error("GetAvailableSlots: failed to get bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to get bookings: %v", ErrInternal, err)
	}

	// 6. Отмечаем заполненные слоты
	response.Slots = markAvailability(times, countByStartTime(bookings, uc.location), service.MaxCapacity)

	uc.logger.Info("GetAvailableSlots: generated %d slots for service=%s, date=%s, bookings=%d",
		len(response.Slots), service.ID, req.Date, len(bookings))
	uc.observe(len(response.Slots))

	return response, nil
}

// validateRequest валидирует запрос и возвращает дату в зоне планирования
func (uc *UseCase) validateRequest(req *Request) (time.Time, error) {
	if strings.TrimSpace(req.ServiceID) == "" {
		return time.Time{}, fmt.Errorf("%w: serviceId is required", ErrInvalidInput)
	}

	date, err := domain.ParseDate(req.Date, uc.location)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	return date, nil
}

func (uc *UseCase) observe(count int) {
	if uc.metrics != nil {
		uc.metrics.ObserveSlots(count)
	}
}
