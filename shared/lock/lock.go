// Package lock provides short leases that serialize work on a single key
// across service replicas.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

var ErrNotAcquired = errors.New("lease is held by another request")

// Locker hands out exclusive leases. The returned release func must be called
// once the caller is done; it is safe to call after the lease expired.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// NoopLocker never blocks. It is used when no Redis is configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// Options controls the lease lifetime and how long Acquire waits.
type Options struct {
	Prefix        string
	TTL           time.Duration
	Wait          time.Duration
	RetryInterval time.Duration
}

const (
	defaultPrefix        = "lease"
	defaultTTL           = time.Minute
	defaultRetryInterval = 50 * time.Millisecond
	releaseTimeout       = time.Second
)

// releaseLua deletes the lease only if it still belongs to the caller.
// KEYS[1] = lease key
// ARGV[1] = owner token
var releaseLua = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
  return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	client *redis.Client
	logger *zerolog.Logger
	opts   Options
}

// NewRedisLocker creates a new RedisLocker. An empty prefix, TTL or retry
// interval falls back to a default; a zero Wait makes Acquire try exactly once.
func NewRedisLocker(logger *zerolog.Logger, client *redis.Client, opts Options) *RedisLocker {
	if opts.Prefix == "" {
		opts.Prefix = defaultPrefix
	}
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = defaultRetryInterval
	}

	return &RedisLocker{
		client: client,
		logger: logger,
		opts:   opts,
	}
}

func (l *RedisLocker) key(key string) string {
	return l.opts.Prefix + ":" + key
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	leaseKey := l.key(key)
	owner := uuid.NewString()
	deadline := time.Now().Add(l.opts.Wait)

	for {
		ok, err := l.client.SetNX(ctx, leaseKey, owner, l.opts.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lease %q: %w", key, err)
		}
		if ok {
			return l.releaser(ctx, leaseKey, owner), nil
		}

		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}

		timer := time.NewTimer(l.opts.RetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *RedisLocker) releaser(ctx context.Context, leaseKey, owner string) func() {
	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
		defer cancel()

		if err := releaseLua.Run(releaseCtx, l.client, []string{leaseKey}, owner).Err(); err != nil {
			l.logger.Warn().Err(err).Str("lease", leaseKey).Msg("failed to release lease")
		}
	}
}
