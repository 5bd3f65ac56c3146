package txmanager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/m04kA/SMC-SchedulingService/pkg/dbmetrics"
)

var (
	// ErrConcurrencyConflict транзакция не смогла сериализоваться с конкурентной
	// (serialization failure, deadlock, гонка по уникальному ключу). Операцию можно повторить
	ErrConcurrencyConflict = errors.New("txmanager: concurrency conflict")

	// ErrNestedTransaction попытка начать транзакцию внутри уже открытой
	ErrNestedTransaction = errors.New("txmanager: nested transactions are not supported")
)

// Коды ошибок PostgreSQL, означающие конфликт конкурентных транзакций
const (
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
	pqUniqueViolation      = "23505"
)

// DB источник транзакций (*dbmetrics.DB)
type DB interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (dbmetrics.TxExecutor, error)
}

// TransactionManager выполняет функции внутри транзакций
// Транзакция передается в репозитории через контекст (dbmetrics.GetExecutor)
type TransactionManager struct {
	db DB
}

func NewTransactionManager(db DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// Do выполняет fn в транзакции с уровнем изоляции по умолчанию (READ COMMITTED)
// Каждый запрос внутри fn видит строки, зафиксированные до его начала,
// поэтому после взятия блокировки чтение не опирается на устаревший снимок
// Ошибка fn откатывает транзакцию и возвращается как есть
func (m *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if dbmetrics.IsInTransaction(ctx) {
		return ErrNestedTransaction
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("txmanager: begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(dbmetrics.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return mapError(fmt.Errorf("txmanager: commit: %w", err))
	}

	return nil
}

// mapError оборачивает конфликтные ошибки PostgreSQL в ErrConcurrencyConflict
func mapError(err error) error {
	if IsConflict(err) {
		return fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	}
	return err
}

// IsConflict возвращает true для ошибок, после которых транзакцию имеет смысл повторить
func IsConflict(err error) bool {
	if errors.Is(err, ErrConcurrencyConflict) {
		return true
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}

	switch string(pqErr.Code) {
	case pqSerializationFailure, pqDeadlockDetected, pqUniqueViolation:
		return true
	default:
		return false
	}
}
