package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"appointment-caller/pkg/utils"
)

// Lock serializes runs per phone number.
type Lock interface {
	// Acquire returns ok=false when another run holds the number.
	Acquire(ctx context.Context, phoneNumber string) (release func(), ok bool, err error)
}

// RedisLock holds a per-number Redis key for the lifetime of a run. Each
// acquisition gets its own token, so a run whose lock expired cannot release
// the lock of the run that took over.
type RedisLock struct {
	rdb      redis.Scripter
	ttl      time.Duration
	log      *slog.Logger
	newToken func() string
}

// NewRedisLock uses ttl as the upper bound of a run; the key expires on its own
// if the process dies mid-run.
func NewRedisLock(rdb redis.Scripter, ttl time.Duration, log *slog.Logger) *RedisLock {
	if log == nil {
		log = slog.Default()
	}
	return &RedisLock{rdb: rdb, ttl: ttl, log: log, newToken: uuid.NewString}
}

func (l *RedisLock) Acquire(ctx context.Context, phoneNumber string) (func(), bool, error) {
	if l.rdb == nil {
		return nil, false, errors.New("booking: redis lock not configured")
	}
	key := utils.CallLockKey(phoneNumber)
	token := l.newToken()
	ok, err := utils.AcquireCallLock(ctx, l.rdb, key, token, l.ttl)
	if err != nil || !ok {
		return nil, ok, err
	}
	release := func() {
		// The run context may already be done; release on a fresh one.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		released, err := utils.ReleaseCallLock(rctx, l.rdb, key, token)
		switch {
		case err != nil:
			l.log.Warn("call lock release failed", "key", key, "err", err)
		case !released:
			l.log.Warn("call lock expired before the run finished", "key", key, "ttl", l.ttl.String())
		}
	}
	return release, true, nil
}
