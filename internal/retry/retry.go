// Package retry wraps a provider call with transient-failure classification
// and exponential backoff.
package retry

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrOverloaded is returned when every attempt failed with a transient error.
// The HTTP boundary maps it to a 503.
var ErrOverloaded = errors.New("provider overloaded after retries")

// DefaultAttempts is the total attempt budget, including the first call.
const DefaultAttempts = 5

// DefaultBaseDelay is the backoff unit: attempt n waits 2^(n-1) of these.
const DefaultBaseDelay = time.Second

// maxBackoffShift caps the exponent so the computed delay cannot overflow
// into a negative duration for very large configured attempt counts.
const maxBackoffShift = 20

// CallFunc is one provider invocation. The controller never inspects the
// returned text; parsing happens downstream.
type CallFunc func(ctx context.Context) (string, error)

// Controller retries transient provider failures with exponential backoff.
// All state is scoped to a single Call, so one Controller may serve
// concurrent requests.
type Controller struct {
	attempts    int
	baseDelay   time.Duration
	sleep       func(time.Duration)
	isTransient func(error) bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithAttempts sets the total attempt budget.
func WithAttempts(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.attempts = n
		}
	}
}

// WithBaseDelay sets the backoff unit.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.baseDelay = d
		}
	}
}

// WithSleep injects the sleep function. Tests use this to observe backoff
// without waiting.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) {
		if sleep != nil {
			c.sleep = sleep
		}
	}
}

// NewController builds a Controller. isTransient classifies provider errors:
// true means retryable (rate limit, quota), false means fatal. A nil
// classifier treats every failure as fatal.
func NewController(isTransient func(error) bool, opts ...Option) *Controller {
	c := &Controller{
		attempts:    DefaultAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       time.Sleep,
		isTransient: isTransient,
	}
	if c.isTransient == nil {
		c.isTransient = func(error) bool { return false }
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call runs fn up to the attempt budget. Transient failures back off
// 2^attempt base-delay units before the next try; fatal failures propagate
// immediately. Exhaustion returns ErrOverloaded. The first success wins and
// its raw text is returned unmodified.
//
// Once started, a sequence runs to completion; there is no early termination
// beyond what fn itself does with ctx.
func (c *Controller) Call(ctx context.Context, fn CallFunc) (string, error) {
	var lastErr error

	for attempt := 0; attempt < c.attempts; attempt++ {
		if attempt > 0 {
			// 1, 2, 4, 8... units before attempts 2..n.
			c.sleep(backoffDelay(attempt, c.baseDelay))
		}

		raw, err := fn(ctx)
		if err == nil {
			return raw, nil
		}

		if !c.isTransient(err) {
			return "", err
		}

		lastErr = err
		slog.Warn("transient provider error",
			"attempt", attempt+1,
			"attempts", c.attempts,
			"error", err)
	}

	slog.Error("provider attempts exhausted", "attempts", c.attempts, "error", lastErr)
	return "", ErrOverloaded
}

// backoffDelay is the wait before the given attempt (1-based after the first
// call): 2^(attempt-1) base-delay units, with the exponent capped.
func backoffDelay(attempt int, base time.Duration) time.Duration {
	shift := attempt - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return time.Duration(1<<shift) * base
}

// TotalBackoff is the sum of every delay a Controller with the given budget
// would sleep through before exhausting its attempts. Callers use it to size
// timeouts around a full retry sequence.
func TotalBackoff(attempts int, base time.Duration) time.Duration {
	var total time.Duration
	for attempt := 1; attempt < attempts; attempt++ {
		total += backoffDelay(attempt, base)
	}
	return total
}
