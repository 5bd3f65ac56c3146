package notifications

import (
	"context"
	"sync"
	"time"

	"github.com/m04kA/SMC-SchedulingService/internal/domain"
)

// Dispatcher асинхронно доставляет события бронирований
// Ошибка доставки не влияет на результат операции, только логируется
type Dispatcher struct {
	notifier Notifier
	timeout  time.Duration
	logger   Logger
	wg       sync.WaitGroup
}

// NewDispatcher создает диспетчер с таймаутом доставки одного события
func NewDispatcher(notifier Notifier, timeout time.Duration, logger Logger) *Dispatcher {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Dispatcher{
		notifier: notifier,
		timeout:  timeout,
		logger:   logger,
	}
}

// Dispatch отправляет событие в фоне и сразу возвращает управление
func (d *Dispatcher) Dispatch(event domain.BookingEvent) {
	if event.ID == "" || event.RecipientID == "" {
		d.logger.Warn("Dispatch: skipping event without id or recipient: type=%s", event.Type)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		ctx := context.Background()
		if d.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}

		if err := d.notifier.Notify(ctx, event.RecipientID, event); err != nil {
			d.logger.Error("Dispatch: failed to deliver event id=%s type=%s recipient=%s: %v",
				event.ID, event.Type, event.RecipientID, err)
			return
		}
		d.logger.Info("Dispatch: delivered event id=%s type=%s", event.ID, event.Type)
	}()
}

// Wait ждет завершения отправок, но не дольше ctx
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
