package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// BackoffPolicy waits as long as a [backoff.BackOff] says, until it returns [backoff.Stop].
type BackoffPolicy struct {
	factory   func() backoff.BackOff
	backoff   backoff.BackOff
	attempted bool
}

var _ Policy = (*BackoffPolicy)(nil)

// Backoff adapts the backoff created by factory. Every derived policy calls factory again, so
// the returned backoffs must not be shared.
func Backoff(factory func() backoff.BackOff) *BackoffPolicy {
	if factory == nil {
		panic("factory can't be nil")
	}
	return &BackoffPolicy{factory: factory}
}

func (r *BackoffPolicy) Attempt(ctx context.Context) bool {
	if !r.attempted {
		if ctx.Err() != nil {
			return false
		}
		r.attempted = true
		return true
	}

	if r.backoff == nil {
		r.backoff = r.factory()
		r.backoff.Reset()
	}

	d := r.backoff.NextBackOff()
	if d == backoff.Stop {
		return false
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (r *BackoffPolicy) Derive() Policy {
	return Backoff(r.factory)
}
