// Package retrying wraps a single operation with bounded attempts and
// exponential backoff, built on github.com/avast/retry-go.
package retrying

import (
	"context"
	"math"
	"time"

	"github.com/avast/retry-go"
)

// Executor retries an operation up to MaxRetries times after the initial
// attempt. The delay before the i-th retry (0-indexed) is exactly
// BaseDelay * Multiplier^i; no delay is emitted after the final attempt.
type Executor struct {
	MaxRetries uint
	BaseDelay  time.Duration
	Multiplier float64

	// RecordDelay, if set, is called with each computed backoff delay,
	// immediately before it is waited out.
	RecordDelay func(delay time.Duration)
}

func New(maxRetries uint, baseDelay time.Duration, multiplier float64) *Executor {
	if multiplier <= 1 {
		multiplier = 2
	}
	return &Executor{
		MaxRetries: maxRetries,
		BaseDelay:  baseDelay,
		Multiplier: multiplier,
	}
}

// Do runs op until it succeeds, the attempt budget is exhausted, or ctx is
// cancelled while waiting out a backoff delay. On exhaustion the last
// failure is returned.
func (e *Executor) Do(ctx context.Context, op func() error) error {
	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(e.MaxRetries+1),
		retry.DelayType(e.delay),
		retry.LastErrorOnly(true),
	)
}

// delay computes the backoff before the retry following the n-th failed
// attempt (n is 0-indexed).
func (e *Executor) delay(n uint, _ error, _ *retry.Config) time.Duration {
	d := time.Duration(float64(e.BaseDelay) * math.Pow(e.Multiplier, float64(n)))
	if e.RecordDelay != nil {
		e.RecordDelay(d)
	}
	return d
}
