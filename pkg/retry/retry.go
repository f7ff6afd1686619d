// Package retry provides the bounded retry combinator shared by every call site
// that waits on external state: anchoring-service polls, transaction receipts
// and relay submissions.
package retry

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

// Backoff selects how the delay between two attempts evolves.
type Backoff string

const (
	BackoffFixed       Backoff = "fixed"
	BackoffExponential Backoff = "exponential"
)

// Policy defines the arguments to control the retry behavior.
type Policy struct {
	// MaxAttempts is the total number of attempts, including the first one. Zero means one
	// attempt.
	MaxAttempts uint
	// Delay is the fixed delay, or the initial delay for exponential backoff.
	Delay time.Duration
	// MaxDelay caps the exponential backoff. Zero leaves it uncapped.
	MaxDelay time.Duration
	Backoff  Backoff
}

// DefaultPolicy is used for anchoring polls and receipt waits when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 10,
		Delay:       2 * time.Second,
		MaxDelay:    30 * time.Second,
		Backoff:     BackoffExponential,
	}
}

// options returns the 'avast/retry' functional options for the policy.
func (p Policy) options() []retry.Option {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}

	opts := []retry.Option{
		retry.Attempts(attempts),
		retry.Delay(p.Delay),
		retry.LastErrorOnly(true),
	}
	if p.MaxDelay > 0 {
		opts = append(opts, retry.MaxDelay(p.MaxDelay))
	}
	if p.Backoff == BackoffExponential {
		opts = append(opts, retry.DelayType(retry.BackOffDelay))
	} else {
		opts = append(opts, retry.DelayType(retry.FixedDelay))
	}

	return opts
}

// Option customises a single Do call.
type Option func(*doConfig)

type doConfig struct {
	retryIf func(error) bool
	lggr    logger.Logger
	name    string
}

// If restricts retries to errors for which fn returns true. Any other error is returned
// immediately.
func If(fn func(error) bool) Option {
	return func(c *doConfig) { c.retryIf = fn }
}

// WithLogger logs every retried attempt under the given operation name.
func WithLogger(lggr logger.Logger, name string) Option {
	return func(c *doConfig) {
		c.lggr = lggr
		c.name = name
	}
}

// Do runs fn until it succeeds, the policy is exhausted, the error is not retryable or ctx is
// done. The last error is returned unwrapped so callers can match it with errors.As.
func Do[T any](ctx context.Context, policy Policy, fn func(context.Context) (T, error), opts ...Option) (T, error) {
	cfg := &doConfig{lggr: logger.Nop()}
	for _, opt := range opts {
		opt(cfg)
	}

	retryOpts := policy.options()
	retryOpts = append(retryOpts, retry.Context(ctx))
	if cfg.retryIf != nil {
		retryOpts = append(retryOpts, retry.RetryIf(cfg.retryIf))
	}
	retryOpts = append(retryOpts, retry.OnRetry(func(attempt uint, err error) {
		cfg.lggr.Debugw("Attempt failed. Retrying...", "operation", cfg.name, "attempt", attempt+1, "error", err)
	}))

	return retry.DoWithData(func() (T, error) {
		return fn(ctx)
	}, retryOpts...)
}
