package redis

import (
	"context"
	"log/slog"
	"time"

	stderrors "errors"

	"github.com/google/uuid"
)

var ErrLockBusy = stderrors.New("lock is held by another owner")

const defaultRetryInterval = 50 * time.Millisecond

// Locker hands out short-lived exclusive locks backed by SET NX.
type Locker struct {
	client        RedisClient
	ttl           time.Duration
	wait          time.Duration
	retryInterval time.Duration
}

// NewLocker returns a locker whose locks expire after ttl and whose
// Acquire gives up after wait.
func NewLocker(client RedisClient, ttl, wait time.Duration) *Locker {
	return &Locker{client: client, ttl: ttl, wait: wait, retryInterval: defaultRetryInterval}
}

// Acquire blocks until key is locked, wait elapses or ctx is done. The
// returned release func only deletes the key if this caller still owns it.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl)
		if err != nil {
			slog.Error("failed to acquire lock", "lock_key", key, "error", err)
			return nil, err
		}
		if ok {
			return func() {
				if _, err := l.client.CompareAndDelete(context.Background(), key, token); err != nil {
					slog.Error("failed to release lock", "lock_key", key, "error", err)
				}
			}, nil
		}
		if time.Now().After(deadline) {
			slog.Warn("lock is busy", "lock_key", key)
			return nil, ErrLockBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retryInterval):
		}
	}
}
