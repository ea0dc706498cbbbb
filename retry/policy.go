// This package contains the [Policy] interface used when a segment can't be created, and
// several implementations built on [backoff.BackOff].
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy decides whether a failed segment creation is attempted again.
//
// Implementations are not considered thread-safe. Every creation uses its own derived
// instance.
type Policy interface {
	// Attempt checks if another attempt should be made.
	//
	// This method blocks until an attempt can be made or the context is cancelled. The first
	// call returns true unless the context is already cancelled.
	Attempt(ctx context.Context) bool
	// Derive returns a new Policy instance with fresh attempt tracking.
	Derive() Policy
}

// Never allows exactly one creation attempt.
func Never() *BackoffPolicy {
	return Backoff(func() backoff.BackOff {
		return &backoff.StopBackOff{}
	})
}

// Fixed waits interval between creation attempts. Zero attempts means no limit.
func Fixed(attempts int, interval time.Duration) *BackoffPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	if interval < 0 {
		panic("interval can't be < 0")
	}
	return Backoff(func() backoff.BackOff {
		return limit(backoff.NewConstantBackOff(interval), attempts)
	})
}

// Exponential doubles the wait between creation attempts from minInterval up to maxInterval,
// shifting every wait by up to a tenth in either direction. Zero attempts means no limit.
func Exponential(attempts int, minInterval, maxInterval time.Duration) *BackoffPolicy {
	if attempts < 0 {
		panic("attempts can't be < 0")
	}
	if minInterval <= 0 {
		panic("minInterval can't be <= 0")
	}
	if minInterval >= maxInterval {
		panic("minInterval can't be >= maxInterval")
	}
	return Backoff(func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = minInterval
		b.MaxInterval = maxInterval
		b.Multiplier = 2
		b.RandomizationFactor = 0.1
		// Segment creation is bounded by attempts and the queue lifetime only.
		b.MaxElapsedTime = 0
		return limit(b, attempts)
	})
}

// limit turns a number of attempts into the number of retries after the first one.
func limit(b backoff.BackOff, attempts int) backoff.BackOff {
	if attempts == 0 {
		return b
	}
	return backoff.WithMaxRetries(b, uint64(attempts-1))
}
