package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"creatorhub_backend/internal/config"
	"creatorhub_backend/internal/logger"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// ErrLockBusy means another instance is running the same job right now.
var ErrLockBusy = errors.New("job lock is held elsewhere")

// JobLock guards a single run of a named job.
type JobLock interface {
	TryLock(ctx context.Context, name string) (unlock func(), err error)
}

// ---------------- Redis ----------------

type RedisJobLock struct {
	rs     *redsync.Redsync
	expiry time.Duration
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func NewRedisJobLock(rdb *redis.Client, expiry time.Duration) *RedisJobLock {
	return &RedisJobLock{
		rs:     redsync.New(goredis.NewPool(rdb)),
		expiry: expiry,
	}
}

// TryLock пробует один раз: если замок занят, эту итерацию пропускаем.
func (l *RedisJobLock) TryLock(ctx context.Context, name string) (func(), error) {
	mutex := l.rs.NewMutex(
		"creatorhub:job:"+name,
		redsync.WithExpiry(l.expiry),
		redsync.WithTries(1),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLockBusy, err)
	}
	return func() {
		if _, err := mutex.UnlockContext(context.Background()); err != nil {
			logger.Warn("failed to release job lock", "job", name, "error", err)
		}
	}, nil
}

// ---------------- In-process ----------------

// LocalJobLock only prevents overlap inside one process.
type LocalJobLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewLocalJobLock() *LocalJobLock {
	return &LocalJobLock{held: make(map[string]bool)}
}

func (l *LocalJobLock) TryLock(_ context.Context, name string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[name] {
		return nil, ErrLockBusy
	}
	l.held[name] = true
	return func() {
		l.mu.Lock()
		delete(l.held, name)
		l.mu.Unlock()
	}, nil
}
