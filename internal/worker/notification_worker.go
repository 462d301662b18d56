package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/approval-service/internal/service"
)

// NotificationWorker drains the notification delivery queue in the background.
type NotificationWorker struct {
	svc    *service.NotificationService
	logger *zap.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// StartNotificationWorker registers event handlers and launches the drain loop.
func StartNotificationWorker(svc *service.NotificationService, logger *zap.Logger) *NotificationWorker {
	if svc == nil {
		return nil
	}
	svc.RegisterHandlers()

	ctx, cancel := context.WithCancel(context.Background())
	w := &NotificationWorker{svc: svc, logger: logger, cancel: cancel}
	w.wg.Add(1)
	go w.run(ctx)
	return w
}

func (w *NotificationWorker) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-w.svc.Deliveries():
			if !ok {
				return
			}
			w.svc.Deliver(ctx, delivery)
		}
	}
}

// Stop halts the drain loop and waits for it to exit. Queued deliveries not
// yet picked up are dropped.
func (w *NotificationWorker) Stop() {
	if w == nil {
		return
	}
	w.cancel()
	w.wg.Wait()
	if w.logger != nil {
		w.logger.Info("notification worker stopped")
	}
}
