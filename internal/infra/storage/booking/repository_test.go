package booking

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

var (
	dayStart = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	dayEnd   = time.Date(2025, 12, 1, 23, 59, 59, 999999999, time.UTC)
)

func newMockRepository(t *testing.T) (*Repository, *sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db), db, mock
}

// inTx открывает транзакцию sqlmock и кладет ее в контекст
func inTx(t *testing.T, db *sql.DB, mock sqlmock.Sqlmock) context.Context {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return dbmetrics.WithTx(context.Background(), tx)
}

func at(hour, minute int) time.Time {
	return time.Date(2025, 12, 1, hour, minute, 0, 0, time.UTC)
}

func bookingRows() *sqlmock.Rows {
	return sqlmock.NewRows(bookingColumns)
}

func addBookingRow(rows *sqlmock.Rows, id string, start time.Time, status domain.BookingStatus, reason interface{}) *sqlmock.Rows {
	return rows.AddRow(id, "svc-1", "client-1", start, start.Add(time.Hour), string(status), reason, nil, at(8, 0), at(8, 0))
}

func q(fragment string) string {
	return regexp.QuoteMeta(fragment)
}

func TestCountOverlapping(t *testing.T) {
	repo, _, mock := newMockRepository(t)
	start, end := at(9, 30), at(10, 30)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM bookings WHERE service_id = $1 AND status <> $2 AND start_time < $3 AND end_time > $4")).
		WithArgs("svc-1", string(domain.StatusCancelled), end, start).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountOverlapping(context.Background(), "svc-1", start, end)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountOverlapping_ScanError(t *testing.T) {
	repo, _, mock := newMockRepository(t)

	mock.ExpectQuery(q("SELECT COUNT(*) FROM bookings")).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.CountOverlapping(context.Background(), "svc-1", at(9, 0), at(10, 0))
	assert.ErrorIs(t, err, ErrScanRow)
	assert.ErrorIs(t, err, sql.ErrConnDone)
}

func TestGetByServiceAndDateRange(t *testing.T) {
	repo, _, mock := newMockRepository(t)

	rows := bookingRows()
	addBookingRow(rows, "b-1", at(9, 0), domain.StatusPending, nil)
	addBookingRow(rows, "b-2", at(10, 0), domain.StatusConfirmed, "перенос")

	mock.ExpectQuery(q("FROM bookings WHERE service_id = $1 AND status <> $2 AND start_time >= $3 AND start_time <= $4 ORDER BY start_time ASC")).
		WithArgs("svc-1", string(domain.StatusCancelled), dayStart, dayEnd).
		WillReturnRows(rows)

	bookings, err := repo.GetByServiceAndDateRange(context.Background(), "svc-1", dayStart, dayEnd)
	require.NoError(t, err)
	require.Len(t, bookings, 2)

	assert.Equal(t, "b-1", bookings[0].ID)
	assert.Equal(t, domain.StatusPending, bookings[0].Status)
	assert.True(t, bookings[0].EndTime.Equal(at(10, 0)))
	assert.Nil(t, bookings[0].CancellationReason)
	assert.Nil(t, bookings[0].CancelledAt)

	require.NotNil(t, bookings[1].CancellationReason)
	assert.Equal(t, "перенос", *bookings[1].CancellationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByServiceAndDateRange_Empty(t *testing.T) {
	repo, _, mock := newMockRepository(t)

	mock.ExpectQuery(q("FROM bookings WHERE")).WillReturnRows(bookingRows())

	bookings, err := repo.GetByServiceAndDateRange(context.Background(), "svc-1", dayStart, dayEnd)
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	assert.Empty(t, bookings)
}

func TestLockService_OutsideTransaction(t *testing.T) {
	repo, _, mock := newMockRepository(t)

	err := repo.LockService(context.Background(), "svc-1")
	assert.ErrorIs(t, err, ErrLock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockService_InTransaction(t *testing.T) {
	repo, db, mock := newMockRepository(t)
	ctx := inTx(t, db, mock)

	mock.ExpectExec(q("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("svc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.LockService(ctx, "svc-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate(t *testing.T) {
	repo, _, mock := newMockRepository(t)

	mock.ExpectQuery(q("INSERT INTO bookings (service_id,client_id,start_time,end_time,status)")).
		WithArgs("svc-1", "client-1", at(9, 0), at(10, 0), string(domain.StatusPending)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow("b-new", at(8, 0), at(8, 0)))

	created, err := repo.Create(context.Background(), &domain.Booking{
		ServiceID: "svc-1",
		ClientID:  "client-1",
		StartTime: at(9, 0),
		EndTime:   at(10, 0),
		Status:    domain.StatusPending,
	})
	require.NoError(t, err)
	assert.Equal(t, "b-new", created.ID)
	assert.True(t, created.CreatedAt.Equal(at(8, 0)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID(t *testing.T) {
	t.Run("outside transaction without row lock", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		repo := NewRepository(db)

		mock.ExpectQuery("SELECT id, service_id, client_id, start_time, end_time, status, cancellation_reason, cancelled_at, created_at, updated_at FROM bookings WHERE id = $1").
			WithArgs("b-1").
			WillReturnRows(addBookingRow(bookingRows(), "b-1", at(9, 0), domain.StatusConfirmed, nil))

		booking, err := repo.GetByID(context.Background(), "b-1")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("inside transaction with row lock", func(t *testing.T) {
		repo, db, mock := newMockRepository(t)
		ctx := inTx(t, db, mock)

		mock.ExpectQuery(q("FROM bookings WHERE id = $1 FOR UPDATE")).
			WithArgs("b-1").
			WillReturnRows(addBookingRow(bookingRows(), "b-1", at(9, 0), domain.StatusPending, nil))

		_, err := repo.GetByID(ctx, "b-1")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, _, mock := newMockRepository(t)

		mock.ExpectQuery(q("FROM bookings WHERE id = $1")).
			WithArgs("missing").
			WillReturnRows(bookingRows())

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrBookingNotFound)
	})
}

func TestUpdateStatus(t *testing.T) {
	const updateQuery = "UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3 RETURNING id, service_id"

	t.Run("updated", func(t *testing.T) {
		repo, _, mock := newMockRepository(t)

		mock.ExpectQuery(q(updateQuery)).
			WithArgs(string(domain.StatusConfirmed), "b-1", string(domain.StatusPending)).
			WillReturnRows(addBookingRow(bookingRows(), "b-1", at(9, 0), domain.StatusConfirmed, nil))

		booking, err := repo.UpdateStatus(context.Background(), "b-1", domain.StatusPending, domain.StatusConfirmed)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusConfirmed, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("status changed concurrently", func(t *testing.T) {
		repo, _, mock := newMockRepository(t)

		mock.ExpectQuery(q(updateQuery)).
			WithArgs(string(domain.StatusConfirmed), "b-1", string(domain.StatusPending)).
			WillReturnRows(bookingRows())
		mock.ExpectQuery(q("FROM bookings WHERE id = $1")).
			WithArgs("b-1").
			WillReturnRows(addBookingRow(bookingRows(), "b-1", at(9, 0), domain.StatusCancelled, nil))

		_, err := repo.UpdateStatus(context.Background(), "b-1", domain.StatusPending, domain.StatusConfirmed)
		assert.ErrorIs(t, err, ErrStatusConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("booking does not exist", func(t *testing.T) {
		repo, _, mock := newMockRepository(t)

		mock.ExpectQuery(q(updateQuery)).WillReturnRows(bookingRows())
		mock.ExpectQuery(q("FROM bookings WHERE id = $1")).
			WithArgs("b-1").
			WillReturnRows(bookingRows())

		_, err := repo.UpdateStatus(context.Background(), "b-1", domain.StatusPending, domain.StatusConfirmed)
		assert.ErrorIs(t, err, ErrBookingNotFound)
		assert.NotErrorIs(t, err, ErrStatusConflict)
	})

	t.Run("driver error", func(t *testing.T) {
		repo, _, mock := newMockRepository(t)

		mock.ExpectQuery(q(updateQuery)).WillReturnError(sql.ErrConnDone)

		_, err := repo.UpdateStatus(context.Background(), "b-1", domain.StatusPending, domain.StatusConfirmed)
		assert.ErrorIs(t, err, ErrExecQuery)
		assert.ErrorIs(t, err, sql.ErrConnDone)
	})
}

func TestCancel(t *testing.T) {
	repo, _, mock := newMockRepository(t)
	reason := "заболел"

	mock.ExpectQuery(q("UPDATE bookings SET status = $1, cancellation_reason = $2, cancelled_at = NOW(), updated_at = NOW() WHERE id = $3 AND status = $4 RETURNING")).
		WithArgs(string(domain.StatusCancelled), reason, "b-1", string(domain.StatusConfirmed)).
		WillReturnRows(addBookingRow(bookingRows(), "b-1", at(9, 0), domain.StatusCancelled, reason))

	booking, err := repo.Cancel(context.Background(), "b-1", domain.StatusConfirmed, &reason)
	require.NoError(t, err)
	assert.True(t, booking.IsCancelled())
	require.NotNil(t, booking.CancellationReason)
	assert.Equal(t, reason, *booking.CancellationReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}
