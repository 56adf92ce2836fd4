// Package retry runs an operation with exponential backoff and jitter.
// It is used at process start to wait for Postgres and Redis; engine
// operations never retry.
package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// PermanentError stops the retry loop immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as not worth retrying. Do returns the unwrapped error.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Policy controls attempts and delays.
type Policy struct {
	// MaxAttempts counts the first call. Default: 3.
	MaxAttempts int

	// InitialDelay is the pause after the first failure. Default: 100ms.
	InitialDelay time.Duration

	// MaxDelay caps every pause. Default: 5s.
	MaxDelay time.Duration

	// Multiplier grows the pause after each failure. Default: 2.
	Multiplier float64

	// Jitter spreads each pause by +/- this fraction. Default: 0.1.
	Jitter float64

	// OnRetry is called before each pause.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultPolicy returns the defaults documented on Policy.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Option adjusts a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the number of attempts; values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(p *Policy) {
		if n > 0 {
			p.MaxAttempts = n
		}
	}
}

// WithDelays sets the initial and maximum pause.
func WithDelays(initial, max time.Duration) Option {
	return func(p *Policy) {
		if initial > 0 {
			p.InitialDelay = initial
		}
		if max > 0 {
			p.MaxDelay = max
		}
	}
}

// WithJitter sets the jitter fraction, clamped to [0, 1].
func WithJitter(j float64) Option {
	return func(p *Policy) {
		p.Jitter = math.Max(0, math.Min(1, j))
	}
}

// WithOnRetry installs a callback run before each pause.
func WithOnRetry(fn func(attempt int, err error, delay time.Duration)) Option {
	return func(p *Policy) { p.OnRetry = fn }
}

// Do calls op until it succeeds, returns a permanent error, attempts run out
// or ctx ends. Once an attempt has failed, its error is returned instead of
// the context error.
func Do(ctx context.Context, op func(ctx context.Context) error, opts ...Option) error {
	p := DefaultPolicy()
	for _, opt := range opts {
		opt(&p)
	}

	var last error
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		var perm *PermanentError
		if errors.As(err, &perm) {
			return perm.Err
		}
		last = err

		if attempt >= p.MaxAttempts {
			return last
		}

		delay := p.delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, err, delay)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return last
		case <-timer.C:
		}
	}
}

// DoValue is Do for operations that produce a value.
func DoValue[T any](ctx context.Context, op func(ctx context.Context) (T, error), opts ...Option) (T, error) {
	var out T
	err := Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, opts...)
	return out, err
}

// delay is InitialDelay * Multiplier^(attempt-1), capped and jittered.
func (p Policy) delay(attempt int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter > 0 {
		d += d * p.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(math.Max(0, d))
}

// Startup returns the options used to connect to backing services at
// process start.
func Startup(attempts int, onRetry func(attempt int, err error, delay time.Duration)) []Option {
	return []Option{
		WithMaxAttempts(attempts),
		WithDelays(250*time.Millisecond, 5*time.Second),
		WithJitter(0.2),
		WithOnRetry(onRetry),
	}
}
