package dispatch

import (
	"context"
	"log/slog"
	"time"
)

const (
	// DefaultCeiling is the hard cap on platform calls before a cooldown.
	DefaultCeiling = 3000
	// DefaultCooldown is how long the pipeline waits once the ceiling is hit.
	DefaultCooldown = time.Hour
)

// Budget throttles mutating and quota-consuming platform calls. It is a
// coarse self-throttle, not a token bucket: nothing smooths the request
// rate inside the window, the ceiling simply cannot be exceeded without a
// full cooldown in between.
//
// The budget is owned by the pipeline and threaded explicitly into every
// component that talks to the platform. It is not safe for concurrent use;
// the pipeline is single-threaded by design.
type Budget struct {
	ceiling  int
	cooldown time.Duration
	count    int
	sleep    func(time.Duration)
	logger   *slog.Logger
}

// Option customizes Budget construction.
type Option func(*Budget)

// WithCeiling overrides the request ceiling.
func WithCeiling(n int) Option {
	return func(b *Budget) { b.ceiling = n }
}

// WithCooldown overrides the cooldown duration.
func WithCooldown(d time.Duration) Option {
	return func(b *Budget) { b.cooldown = d }
}

// WithSleep overrides the blocking wait, used by tests.
func WithSleep(fn func(time.Duration)) Option {
	return func(b *Budget) { b.sleep = fn }
}

// NewBudget builds a request budget with the platform defaults.
func NewBudget(logger *slog.Logger, opts ...Option) *Budget {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Budget{
		ceiling:  DefaultCeiling,
		cooldown: DefaultCooldown,
		sleep:    time.Sleep,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Count returns the number of successful calls since the last reset.
func (b *Budget) Count() int {
	return b.count
}

// acquire blocks until the call may proceed, resetting the counter after a
// cooldown. Once the sleep begins it runs to completion; there is no
// cancellation point inside the wait.
func (b *Budget) acquire(operation string) {
	if b.count < b.ceiling {
		return
	}
	b.logger.Warn("request ceiling reached, cooling down",
		"operation", operation,
		"ceiling", b.ceiling,
		"cooldown", b.cooldown,
	)
	b.sleep(b.cooldown)
	b.count = 0
}

// Call runs fn under the budget. A successful call increments the counter;
// a failed call is logged, swallowed, and returns the zero value with
// ok=false. Failures do not count against the budget and there is no
// retry.
func Call[T any](ctx context.Context, b *Budget, operation string, fn func(context.Context) (T, error)) (T, bool) {
	result, err := CallErr(ctx, b, operation, fn)
	return result, err == nil
}

// CallErr is Call for callers that need to classify the failure. The
// error is still logged here; the caller decides what survives it.
func CallErr[T any](ctx context.Context, b *Budget, operation string, fn func(context.Context) (T, error)) (T, error) {
	b.acquire(operation)
	result, err := fn(ctx)
	if err != nil {
		b.logger.Error("platform call failed", "operation", operation, "error", err)
		var zero T
		return zero, err
	}
	b.count++
	return result, nil
}
