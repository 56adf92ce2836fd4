package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/linguaromana/engagement/internal/domain/shared"
)

// releaseScript deletes the lock only when it still holds our token, so an
// expired lock taken over by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockerOptions tunes a UserLocker.
type LockerOptions struct {
	// TTL bounds how long a crashed holder can block the user.
	TTL time.Duration

	// RetryInterval is the pause between acquisition attempts.
	RetryInterval time.Duration

	// Wait bounds how long Lock keeps retrying. Zero means until ctx ends.
	Wait time.Duration
}

// DefaultLockerOptions returns the options used when none are configured.
func DefaultLockerOptions() LockerOptions {
	return LockerOptions{
		TTL:           10 * time.Second,
		RetryInterval: 25 * time.Millisecond,
		Wait:          5 * time.Second,
	}
}

// UserLocker is a distributed per-user mutex (SET NX PX plus a token checked
// on release). It implements command.UserLocker.
type UserLocker struct {
	client redis.Cmdable
	opts   LockerOptions
}

// NewUserLocker creates a new UserLocker.
func NewUserLocker(client redis.Cmdable, opts LockerOptions) *UserLocker {
	def := DefaultLockerOptions()
	if opts.TTL <= 0 {
		opts.TTL = def.TTL
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = def.RetryInterval
	}
	return &UserLocker{client: client, opts: opts}
}

// Lock blocks until the user's lock is held, the wait elapses or ctx ends.
// The returned function releases the lock.
func (l *UserLocker) Lock(ctx context.Context, userID shared.UserID) (func(context.Context) error, error) {
	key := LockKey(userID.String())
	token := uuid.NewString()

	if l.opts.Wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.opts.Wait)
		defer cancel()
	}

	ticker := time.NewTicker(l.opts.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.opts.TTL).Result()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			return nil, shared.StorageError("redis", "AcquireLock", err)
		}
		if ok {
			return l.release(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", shared.ErrLockNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *UserLocker) release(key, token string) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return shared.StorageError("redis", "ReleaseLock", err)
		}
		return nil
	}
}
