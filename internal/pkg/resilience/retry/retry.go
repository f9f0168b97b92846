// Package retry provides a configurable retry mechanism for operations that
// may fail temporarily. It wraps the retry-go package from Avast and exposes a
// small interface with functional options for customizing retry behavior.
//
// The default strategy is exponential backoff:
//
//	r := retry.New(
//	    retry.WithAttempts(5),
//	    retry.WithDelay(500*time.Millisecond),
//	    retry.WithMaxDelay(10*time.Second),
//	)
//	err := r.Execute(ctx, func() error { return someOperation() })
package retry

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v4"
)

// Retry defines the interface for retry operations.
type Retry interface {
	// Execute runs the given operation with the configured retry logic,
	// retrying on error until the attempt budget is exhausted or ctx is done.
	// The operation should be idempotent. Execute returns nil on success, the
	// context error on cancellation, or the operation's error otherwise.
	Execute(ctx context.Context, operation func() error) error
}

// config holds internal settings for the retry mechanism.
type config struct {
	attempts    uint          // maximum number of attempts, including the first
	delay       time.Duration // base delay between attempts
	maxDelay    time.Duration // cap on the backoff delay
	lastErrOnly bool          // whether to return only the last error
}

// Option defines a functional option for configuring the retry mechanism.
type Option func(*config)

// retrier implements the Retry interface using the retry-go package.
type retrier struct {
	cfg config
}

var _ Retry = (*retrier)(nil)

// New creates a Retry implementation configured with the provided options.
//
// Defaults: 3 attempts, 1s base delay, 5s max delay, exponential backoff,
// only the last error returned.
func New(opts ...Option) Retry {
	cfg := config{
		attempts:    3,
		delay:       1 * time.Second,
		maxDelay:    5 * time.Second,
		lastErrOnly: true,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &retrier{
		cfg: cfg,
	}
}

// Execute implements the Retry interface.
func (r *retrier) Execute(ctx context.Context, operation func() error) error {
	options := []retry.Option{
		retry.Attempts(r.cfg.attempts),
		retry.Delay(r.cfg.delay),
		retry.MaxDelay(r.cfg.maxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(r.cfg.lastErrOnly),
		retry.Context(ctx),
	}

	return retry.Do(operation, options...)
}

// WithAttempts sets the maximum number of attempts (including the initial attempt).
// Default: 3.
func WithAttempts(n uint) Option {
	return func(c *config) {
		c.attempts = n
	}
}

// WithDelay sets the base delay between retry attempts. With exponential
// backoff, subsequent delays grow from this value. Default: 1 second.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.delay = d
	}
}

// WithMaxDelay caps the exponential growth of the delay between attempts.
// Default: 5 seconds.
func WithMaxDelay(d time.Duration) Option {
	return func(c *config) {
		c.maxDelay = d
	}
}

// WithLastErrorOnly controls whether Execute returns only the final attempt's
// error (true, the default) or all attempts' errors combined (false).
func WithLastErrorOnly(b bool) Option {
	return func(c *config) {
		c.lastErrOnly = b
	}
}
