package workers

import (
	"context"
	"fmt"

	"creatorhub_backend/internal/config"
	"creatorhub_backend/internal/services"

	"github.com/robfig/cron/v3"
)

// NewScheduler registers the daily jobs on a seconds-precision cron.
// The caller starts and stops it.
func NewScheduler(ctx context.Context, runner *Runner, container *services.ServiceContainer, cfg *config.Config) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds())

	jobs := []struct {
		spec string
		job  Job
	}{
		{cfg.Workers.ExpiryCron, ExpirySweepJob(container.SubscriptionService)},
		{cfg.Workers.ExpiringCron, ExpiringNoticesJob(container.NotificationService, cfg.Workers.ExpiringWithinDays)},
	}

	for _, j := range jobs {
		job := j.job
		if _, err := c.AddFunc(j.spec, func() { _ = runner.Run(ctx, job) }); err != nil {
			return nil, fmt.Errorf("failed to schedule %s (%q): %w", job.Name, j.spec, err)
		}
	}
	return c, nil
}
