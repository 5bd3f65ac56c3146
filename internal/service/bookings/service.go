package bookings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

// Service сервис для работы с бронированиями
type Service struct {
	bookingRepo BookingRepository
	serviceRepo ServiceRepository
	txManager   TransactionManager
	location    *time.Location
	logger      Logger
	now         func() time.Time
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	serviceRepo ServiceRepository,
	txManager TransactionManager,
	loc *time.Location,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		serviceRepo: serviceRepo,
		txManager:   txManager,
		location:    loc,
		logger:      logger,
		now:         time.Now,
	}
}

// GetByID получает бронирование по ID
// Доступно клиенту бронирования и провайдеру услуги
func (s *Service) GetByID(ctx context.Context, id string, userID string) (*models.BookingResponse, error) {
	s.logger.Info("GetByID: fetching booking id=%s for user=%s", id, userID)

	booking, _, err := s.loadWithAccess(ctx, "GetByID", id, userID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("GetByID: successfully fetched booking id=%s", id)
	return models.FromDomainBooking(booking, s.location), nil
}

// Cancel отменяет бронирование
// Отменить может клиент или провайдер, только из PENDING или CONFIRMED
// Отмененное бронирование сразу перестает занимать вместимость
func (s *Service) Cancel(ctx context.Context, bookingID string, req *models.CancelBookingRequest) (*models.BookingChange, error) {
	s.logger.Info("Cancel: cancelling booking id=%s by user=%s", bookingID, req.UserID)

	if req.CancellationReason != nil && len(*req.CancellationReason) > domain.MaxCancellationReasonLength {
		return nil, fmt.Errorf("%w: cancellationReason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}

	reason := trimmed(req.CancellationReason)

	var (
		cancelled *domain.Booking
		service   *domain.Service
	)
	// Чтение под FOR UPDATE и запись в одной транзакции
	err := s.txManager.Do(ctx, func(ctx context.Context) error {
		booking, svc, err := s.loadWithAccess(ctx, "Cancel", bookingID, req.UserID)
		if err != nil {
			return err
		}
		service = svc

		if !booking.CanBeCancelled() {
			s.logger.Warn("Cancel: booking id=%s cannot be cancelled, status=%s", bookingID, booking.Status)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, domain.StatusCancelled)
		}

		cancelled, err = s.bookingRepo.Cancel(ctx, bookingID, booking.Status, reason)
		if err != nil {
			return s.mapWriteError("Cancel", bookingID, err)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError("Cancel", err)
	}

	s.logger.Info("Cancel: successfully cancelled booking id=%s by user=%s", bookingID, req.UserID)
	return &models.BookingChange{
		Booking: models.FromDomainBooking(cancelled, s.location),
		Event:   s.event(domain.EventBookingCancelled, counterparty(cancelled, service, req.UserID), cancelled),
	}, nil
}

// UpdateStatus переводит бронирование в новый статус
// Доступно только провайдеру услуги, переход проверяется жизненным циклом
func (s *Service) UpdateStatus(ctx context.Context, bookingID string, req *models.UpdateStatusRequest) (*models.BookingChange, error) {
	s.logger.Info("UpdateStatus: updating booking id=%s to status=%s by user=%s",
		bookingID, req.Status, req.UserID)

	newStatus, err := models.ToDomainBookingStatus(req.Status)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid status=%s for booking id=%s", req.Status, bookingID)
		return nil, fmt.Errorf("%w: invalid status %q", ErrInvalidInput, req.Status)
	}

	var updated *domain.Booking
	eventType := domain.EventBookingUpdated

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		booking, service, err := s.loadWithAccess(ctx, "UpdateStatus", bookingID, req.UserID)
		if err != nil {
			return err
		}

		if service == nil || service.ProviderID != req.UserID {
			s.logger.Warn("UpdateStatus: user=%s is not the provider of booking id=%s", req.UserID, bookingID)
			return ErrAccessDenied
		}

		if !booking.Status.CanTransitionTo(newStatus) {
			s.logger.Warn("UpdateStatus: transition %s -> %s is not allowed for booking id=%s",
				booking.Status, newStatus, bookingID)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, newStatus)
		}

		if newStatus == domain.StatusCancelled {
			updated, err = s.bookingRepo.Cancel(ctx, bookingID, booking.Status, nil)
			eventType = domain.EventBookingCancelled
		} else {
			updated, err = s.bookingRepo.UpdateStatus(ctx, bookingID, booking.Status, newStatus)
		}
		if err != nil {
			return s.mapWriteError("UpdateStatus", bookingID, err)
		}
		return nil
	})
	if err != nil {
		return nil, s.mapTxError("UpdateStatus", err)
	}

	s.logger.Info("UpdateStatus: successfully updated booking id=%s to status=%s", bookingID, newStatus)
	return &models.BookingChange{
		Booking: models.FromDomainBooking(updated, s.location),
		Event:   s.event(eventType, updated.ClientID, updated),
	}, nil
}

// Вспомогательные методы

// loadWithAccess получает бронирование и услугу и проверяет, что пользователь участник
func (s *Service) loadWithAccess(ctx context.Context, op, bookingID, userID string) (*domain.Booking, *domain.Service, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}

	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("%s: booking id=%s not found", op, bookingID)
			return nil, nil, ErrBookingNotFound
		}
		s.logger.Error("%s: repository error for booking id=%s: %v", op, bookingID, err)
		return nil, nil, fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}

	service, err := s.serviceRepo.GetByID(ctx, booking.ServiceID)
	if err != nil && !errors.Is(err, serviceRepo.ErrServiceNotFound) {
		s.logger.Error("%s: failed to get service id=%s: %v", op, booking.ServiceID, err)
		return nil, nil, fmt.Errorf("%w: %s - failed to get service: %v", ErrInternal, op, err)
	}

	if !booking.IsParticipant(userID, service) {
		s.logger.Warn("%s: access denied for user=%s to booking id=%s", op, userID, bookingID)
		return nil, nil, ErrAccessDenied
	}

	return booking, service, nil
}

func (s *Service) mapWriteError(op, bookingID string, err error) error {
	switch {
	case errors.Is(err, bookingRepo.ErrBookingNotFound):
		s.logger.Warn("%s: booking id=%s not found during update", op, bookingID)
		return ErrBookingNotFound
	case errors.Is(err, bookingRepo.ErrStatusConflict):
		s.logger.Warn("%s: booking id=%s status changed concurrently", op, bookingID)
		return fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	default:
		s.logger.Error("%s: repository error for booking id=%s: %v", op, bookingID, err)
		return fmt.Errorf("%w: %s - repository error: %v", ErrInternal, op, err)
	}
}

// mapTxError пропускает ошибки сервиса, остальное (commit, BeginTx) считается внутренней ошибкой
func (s *Service) mapTxError(op string, err error) error {
	for _, known := range []error{ErrBookingNotFound, ErrAccessDenied, ErrInvalidTransition, ErrInvalidInput, ErrInternal} {
		if errors.Is(err, known) {
			return err
		}
	}
	if txmanager.IsConflict(err) {
		s.logger.Warn("%s: concurrent update detected: %v", op, err)
		return fmt.Errorf("%w: concurrent update", ErrInvalidTransition)
	}
	s.logger.Error("%s: transaction error: %v", op, err)
	return fmt.Errorf("%w: %s - transaction error: %v", ErrInternal, op, err)
}

func (s *Service) event(eventType domain.EventType, recipientID string, booking *domain.Booking) domain.BookingEvent {
	return domain.BookingEvent{
		ID:          uuid.NewString(),
		Type:        eventType,
		RecipientID: recipientID,
		Booking:     booking,
		OccurredAt:  s.now(),
	}
}

// counterparty возвращает участника, которого нужно уведомить о действии actorID
func counterparty(booking *domain.Booking, service *domain.Service, actorID string) string {
	if service == nil {
		return booking.ClientID
	}
	if actorID == service.ProviderID {
		return booking.ClientID
	}
	return service.ProviderID
}

func trimmed(s *string) *string {
	v := strings.TrimSpace(ptr.Value(s))
	if v == "" {
		return nil
	}
	return ptr.Ptr(v)
}
