package workers

import (
	"context"
	"errors"
	"time"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/services"

	"gorm.io/gorm"
)

const (
	JobExpirySweep     = "expiry_sweep"
	JobExpiringNotices = "expiring_notices"
	defaultJobTimeout  = 5 * time.Minute
	expiringJobTimeout = 10 * time.Minute
)

// Job is one unit of background work run against the database.
type Job struct {
	Name    string
	Timeout time.Duration
	Run     func(ctx context.Context, db *gorm.DB) error
}

// ExpirySweepJob flips overdue active subscriptions to expired.
func ExpirySweepJob(subscriptions services.SubscriptionService) Job {
	return Job{
		Name:    JobExpirySweep,
		Timeout: defaultJobTimeout,
		Run: func(ctx context.Context, db *gorm.DB) error {
			n, err := subscriptions.ExpireOverdue(ctx, db)
			if err == nil {
				logger.WorkerLog("subscriptions", JobExpirySweep, nil, "expired", n)
			}
			return err
		},
	}
}

func ExpiringNoticesJob(notifications services.NotificationService, withinDays int) Job {
	return Job{
		Name:    JobExpiringNotices,
		Timeout: expiringJobTimeout,
		Run: func(ctx context.Context, db *gorm.DB) error {
			summary, err := notifications.NotifyExpiringSubscriptions(ctx, db, withinDays)
			if err == nil {
				logger.WorkerLog("notifications", JobExpiringNotices, nil,
					"matched", summary.Matched, "sent", summary.Sent, "skipped", summary.Skipped, "failed", summary.Failed)
			}
			return err
		},
	}
}

// Runner executes jobs under a lock and a timeout.
type Runner struct {
	db   *gorm.DB
	lock JobLock
}

func NewRunner(db *gorm.DB, lock JobLock) *Runner {
	if lock == nil {
		lock = NewLocalJobLock()
	}
	return &Runner{db: db, lock: lock}
}

// Run returns ErrLockBusy when the job is already running somewhere else.
func (r *Runner) Run(ctx context.Context, job Job) error {
	timeout := job.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	unlock, err := r.lock.TryLock(ctx, job.Name)
	if err != nil {
		if errors.Is(err, ErrLockBusy) {
			logger.Info("job skipped, lock busy", "job", job.Name, "reason", err.Error())
		}
		return err
	}
	defer unlock()

	if err := job.Run(ctx, r.db); err != nil {
		logger.WorkerLog("runner", job.Name, err)
		return err
	}
	return nil
}
