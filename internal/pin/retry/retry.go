package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type config struct {
	interval time.Duration
	notify   func(attempt int, err error)
}

type Option func(*config)

// WithBackoff waits d between attempts. The default is no wait.
func WithBackoff(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithNotify is called after every failed attempt, including the last one.
func WithNotify(fn func(attempt int, err error)) Option {
	return func(c *config) { c.notify = fn }
}

// Do runs op up to 1+retries times, sequentially, and returns the first
// success or the error of the last attempt. A cancelled ctx stops further
// attempts; the last attempt's error is still the one returned.
func Do[T any](ctx context.Context, retries int, op func(context.Context) (T, error), opts ...Option) (T, error) {
	var zero T
	if retries < 0 {
		retries = 0
	}
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if cfg.interval > 0 {
		b = backoff.NewConstantBackOff(cfg.interval)
	}

	attempts := 0
	var lastErr error
	res, err := backoff.Retry(ctx, func() (T, error) {
		if attempts > 0 && ctx.Err() != nil {
			return zero, backoff.Permanent(lastErr)
		}
		attempts++
		v, opErr := op(ctx)
		if opErr != nil {
			lastErr = opErr
			if cfg.notify != nil {
				cfg.notify(attempts, opErr)
			}
			return zero, opErr
		}
		return v, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(retries+1)),
	)
	if err != nil {
		if lastErr != nil {
			return zero, lastErr
		}
		return zero, err
	}
	return res, nil
}
