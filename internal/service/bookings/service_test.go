package bookings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/booking"
	serviceRepo "github.com/m04kA/SMC-SchedulingService/internal/infra/storage/service"
	"github.com/m04kA/SMC-SchedulingService/internal/service/bookings/models"
	"github.com/m04kA/SMC-SchedulingService/pkg/ptr"
	"github.com/m04kA/SMC-SchedulingService/pkg/txmanager"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeBookingRepo struct {
	bookings map[string]*domain.Booking
	getErr   error
	// conflict имитирует конкурентную смену статуса между чтением и записью
	conflict bool
}

func (f *fakeBookingRepo) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) UpdateStatus(_ context.Context, id string, from, to domain.BookingStatus) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	if f.conflict || b.Status != from {
		return nil, bookingRepo.ErrStatusConflict
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id string, from domain.BookingStatus, reason *string) (*domain.Booking, error) {
	b, ok := f.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrBookingNotFound
	}
	if f.conflict || b.Status != from {
		return nil, bookingRepo.ErrStatusConflict
	}
	now := time.Now()
	b.Status = domain.StatusCancelled
	b.CancellationReason = reason
	b.CancelledAt = &now
	cp := *b
	return &cp, nil
}

// passthroughTx выполняет fn без транзакции, err имитирует ошибку commit
type passthroughTx struct {
	calls int
	err   error
}

func (tx *passthroughTx) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return tx.err
}

type fakeServiceRepo struct {
	services map[string]*domain.Service
}

func (f *fakeServiceRepo) GetByID(_ context.Context, id string) (*domain.Service, error) {
	s, ok := f.services[id]
	if !ok {
		return nil, serviceRepo.ErrServiceNotFound
	}
	return s, nil
}

const (
	clientID   = "client-1"
	providerID = "provider-1"
	strangerID = "stranger"
)

func newTestService(status domain.BookingStatus) (*Service, *fakeBookingRepo) {
	svc, repo, _ := newTestServiceWithTx(status)
	return svc, repo
}

func newTestServiceWithTx(status domain.BookingStatus) (*Service, *fakeBookingRepo, *passthroughTx) {
	start := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	repo := &fakeBookingRepo{bookings: map[string]*domain.Booking{
		"b-1": {
			ID:        "b-1",
			ServiceID: "svc-1",
			ClientID:  clientID,
			StartTime: start,
			EndTime:   start.Add(30 * time.Minute),
			Status:    status,
		},
	}}
	services := &fakeServiceRepo{services: map[string]*domain.Service{
		"svc-1": {ID: "svc-1", ProviderID: providerID, DurationMinutes: 30, MaxCapacity: 1},
	}}
	tx := &passthroughTx{}
	return NewService(repo, services, tx, time.UTC, nopLogger{}), repo, tx
}

func TestGetByID_Access(t *testing.T) {
	svc, _ := newTestService(domain.StatusPending)

	resp, err := svc.GetByID(context.Background(), "b-1", clientID)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15T09:00:00Z", resp.StartTime)
	assert.Equal(t, "PENDING", resp.Status)

	_, err = svc.GetByID(context.Background(), "b-1", providerID)
	assert.NoError(t, err)

	_, err = svc.GetByID(context.Background(), "b-1", strangerID)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetByID(context.Background(), "missing", clientID)
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = svc.GetByID(context.Background(), "b-1", " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetByID_RepositoryError(t *testing.T) {
	svc, repo := newTestService(domain.StatusPending)
	repo.getErr = errors.New("connection refused")

	_, err := svc.GetByID(context.Background(), "b-1", clientID)
	assert.ErrorIs(t, err, ErrInternal)
}

func TestCancel_ByClientNotifiesProvider(t *testing.T) {
	svc, repo := newTestService(domain.StatusConfirmed)

	change, err := svc.Cancel(context.Background(), "b-1", &models.CancelBookingRequest{
		UserID:             clientID,
		CancellationReason: ptr.Ptr("  заболел  "),
	})
	require.NoError(t, err)

	assert.Equal(t, "CANCELLED", change.Booking.Status)
	require.NotNil(t, change.Booking.CancellationReason)
	assert.Equal(t, "заболел", *change.Booking.CancellationReason)
	assert.NotNil(t, change.Booking.CancelledAt)

	assert.Equal(t, domain.EventBookingCancelled, change.Event.Type)
	assert.Equal(t, providerID, change.Event.RecipientID)
	assert.NotEmpty(t, change.Event.ID)
	assert.Equal(t, domain.StatusCancelled, repo.bookings["b-1"].Status)
}

func TestCancel_ByProviderNotifiesClient(t *testing.T) {
	svc, _ := newTestService(domain.StatusPending)

	change, err := svc.Cancel(context.Background(), "b-1", &models.CancelBookingRequest{UserID: providerID})
	require.NoError(t, err)

	assert.Nil(t, change.Booking.CancellationReason)
	assert.Equal(t, clientID, change.Event.RecipientID)
}

func TestCancel_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  domain.BookingStatus
		req     *models.CancelBookingRequest
		wantErr error
	}{
		{
			name:    "already cancelled",
			status:  domain.StatusCancelled,
			req:     &models.CancelBookingRequest{UserID: clientID},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "completed",
			status:  domain.StatusCompleted,
			req:     &models.CancelBookingRequest{UserID: clientID},
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "stranger",
			status:  domain.StatusPending,
			req:     &models.CancelBookingRequest{UserID: strangerID},
			wantErr: ErrAccessDenied,
		},
		{
			name:   "reason too long",
			status: domain.StatusPending,
			req: &models.CancelBookingRequest{
				UserID:             clientID,
				CancellationReason: ptr.Ptr(string(make([]byte, domain.MaxCancellationReasonLength+1))),
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.status)
			_, err := svc.Cancel(context.Background(), "b-1", tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCancel_RunsInTransaction(t *testing.T) {
	svc, _, tx := newTestServiceWithTx(domain.StatusPending)

	_, err := svc.Cancel(context.Background(), "b-1", &models.CancelBookingRequest{UserID: clientID})
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
}

func TestCancel_CommitErrors(t *testing.T) {
	svc, _, tx := newTestServiceWithTx(domain.StatusPending)
	tx.err = fmt.Errorf("%w: commit", txmanager.ErrConcurrencyConflict)

	_, err := svc.Cancel(context.Background(), "b-1", &models.CancelBookingRequest{UserID: clientID})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	svc, _, tx = newTestServiceWithTx(domain.StatusPending)
	tx.err = errors.New("connection reset")

	_, err = svc.Cancel(context.Background(), "b-1", &models.CancelBookingRequest{UserID: clientID})
	assert.ErrorIs(t, err, ErrInternal)
}

func TestCancel_ConcurrentStatusChange(t *testing.T) {
	svc, repo := newTestService(domain.StatusPending)
	repo.conflict = true

	_, err := svc.Cancel(context.Background(), "b-1", &models.CancelBookingRequest{UserID: clientID})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	svc, _ := newTestService(domain.StatusPending)
	ctx := context.Background()

	change, err := svc.UpdateStatus(ctx, "b-1", &models.UpdateStatusRequest{UserID: providerID, Status: "CONFIRMED"})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", change.Booking.Status)
	assert.Equal(t, domain.EventBookingUpdated, change.Event.Type)
	assert.Equal(t, clientID, change.Event.RecipientID)

	change, err = svc.UpdateStatus(ctx, "b-1", &models.UpdateStatusRequest{UserID: providerID, Status: "COMPLETED"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", change.Booking.Status)

	_, err = svc.UpdateStatus(ctx, "b-1", &models.UpdateStatusRequest{UserID: providerID, Status: "CONFIRMED"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateStatus_CancelViaStatus(t *testing.T) {
	svc, repo := newTestService(domain.StatusConfirmed)

	change, err := svc.UpdateStatus(context.Background(), "b-1", &models.UpdateStatusRequest{UserID: providerID, Status: "CANCELLED"})
	require.NoError(t, err)
	assert.Equal(t, domain.EventBookingCancelled, change.Event.Type)
	assert.NotNil(t, repo.bookings["b-1"].CancelledAt)
}

func TestUpdateStatus_Errors(t *testing.T) {
	svc, _ := newTestService(domain.StatusPending)
	ctx := context.Background()

	_, err := svc.UpdateStatus(ctx, "b-1", &models.UpdateStatusRequest{UserID: clientID, Status: "CONFIRMED"})
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.UpdateStatus(ctx, "b-1", &models.UpdateStatusRequest{UserID: providerID, Status: "DONE"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.UpdateStatus(ctx, "b-1", &models.UpdateStatusRequest{UserID: providerID, Status: "COMPLETED"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.UpdateStatus(ctx, "missing", &models.UpdateStatusRequest{UserID: providerID, Status: "CONFIRMED"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestFromDomainBooking_Location(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	start := time.Date(2024, 1, 15, 6, 0, 0, 0, time.UTC)

	resp := models.FromDomainBooking(&domain.Booking{StartTime: start, EndTime: start.Add(time.Hour)}, loc)
	assert.Equal(t, "2024-01-15T09:00:00+03:00", resp.StartTime)
	assert.Equal(t, "2024-01-15T10:00:00+03:00", resp.EndTime)
	assert.Nil(t, models.FromDomainBooking(nil, loc))
}
