package workers

import (
	"context"
	"time"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/services"
)

// SubscriptionWorker периодически помечает просроченные подписки как expired.
// Доступ от этого не зависит: резолвер проверяет expires_at сам.
type SubscriptionWorker struct {
	runner   *Runner
	job      Job
	interval time.Duration
}

func NewSubscriptionWorker(runner *Runner, subscriptions services.SubscriptionService, interval time.Duration) *SubscriptionWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SubscriptionWorker{
		runner:   runner,
		job:      ExpirySweepJob(subscriptions),
		interval: interval,
	}
}

// Start запускает фоновую задачу
func (w *SubscriptionWorker) Start(ctx context.Context) {
	go w.checkExpiredSubscriptions(ctx)
}

func (w *SubscriptionWorker) checkExpiredSubscriptions(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Subscription worker stopped")
			return
		case <-ticker.C:
			_ = w.runner.Run(ctx, w.job)
		}
	}
}
