package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"creatorhub_backend/internal/logger"
	"creatorhub_backend/internal/workers"
)

const redisLockExpiry = 15 * time.Minute

// RunCron запускает планировщик фоновых заданий отдельным процессом.
// С Redis задание в каждый момент выполняет только один экземпляр.
func RunCron() {
	cfg, gormDB := bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, _, err := NewServiceContainer(cfg, nil)
	if err != nil {
		logger.Fatal("Failed to initialize services", "error", err)
	}

	var lock workers.JobLock = workers.NewLocalJobLock()
	if cfg.Redis.Addr != "" {
		rdb := workers.NewRedisClient(cfg)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("Redis unavailable", "addr", cfg.Redis.Addr, "error", err)
		}
		lock = workers.NewRedisJobLock(rdb, redisLockExpiry)
		logger.Info("Distributed job lock enabled", "addr", cfg.Redis.Addr)
	} else {
		logger.Warn("REDIS_ADDR is not set: run a single cron instance")
	}

	scheduler, err := workers.NewScheduler(ctx, workers.NewRunner(gormDB, lock), container, cfg)
	if err != nil {
		logger.Fatal("Failed to schedule jobs", "error", err)
	}

	scheduler.Start()
	logger.Info("Cron jobs started",
		workers.JobExpirySweep, cfg.Workers.ExpiryCron,
		workers.JobExpiringNotices, cfg.Workers.ExpiringCron,
		"expiring_within_days", cfg.Workers.ExpiringWithinDays)

	<-ctx.Done()
	logger.Info("Shutting down cron...")

	select {
	case <-scheduler.Stop().Done():
		logger.Info("Cron jobs stopped gracefully")
	case <-time.After(shutdownTimeout):
		logger.Warn("Cron jobs forced to stop after timeout")
	}
}
