// Package retry implements the two bounded retry policies layered over
// store and transport calls: a linear policy for optimistic-concurrency
// conflicts and a jittered exponential policy for transient transport
// failures. Policies retry nothing their predicate does not accept.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/akozyrev/TrainingEvents/internal/domain"
)

type Policy struct {
	// MaxAttempts bounds the total number of calls, including the first.
	MaxAttempts int

	// Delay is the base delay. Linear policies wait attempt*Delay;
	// exponential policies start at Delay and multiply by Backoff.
	Delay time.Duration

	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration

	// Backoff <= 1 selects linear backoff.
	Backoff float64

	// Jitter is the random fraction (0..1) applied to each wait.
	Jitter float64

	// Retryable decides whether an error is worth another attempt.
	// Non-retryable errors propagate immediately.
	Retryable func(error) bool
}

// Conflicts wraps read-modify-write sequences against the primary store.
// Conflict windows are typically sub-second, so the waits stay short and
// the attempt budget is generous.
var Conflicts = Policy{
	MaxAttempts: 25,
	Delay:       250 * time.Millisecond,
	Retryable:   IsConflict,
}

// Transport wraps calendar and notification channel calls. The dependency
// may already be overloaded, so attempts stay few and jittered.
var Transport = Policy{
	MaxAttempts: 3,
	Delay:       500 * time.Millisecond,
	MaxDelay:    5 * time.Second,
	Backoff:     2,
	Jitter:      0.2,
	Retryable:   IsTransient,
}

func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrConflict)
}

func IsTransient(err error) bool {
	return errors.Is(err, domain.ErrThrottled) || errors.Is(err, domain.ErrBadGateway)
}

// Do runs fn under the policy. It returns nil on the first success, the
// error unchanged when the predicate rejects it, and the last error wrapped
// with domain.ErrRetriesExhausted when the attempt budget runs out.
func Do(ctx context.Context, p Policy, fn func(context.Context) error) error {
	retryable := p.Retryable
	if retryable == nil {
		retryable = func(error) bool { return true }
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err

		if attempt == p.MaxAttempts {
			break
		}

		select {
		case <-time.After(p.wait(attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("%w after %d attempts: %w", domain.ErrRetriesExhausted, p.MaxAttempts, lastErr)
}

func (p Policy) wait(attempt int) time.Duration {
	var d time.Duration
	if p.Backoff <= 1 {
		d = time.Duration(attempt) * p.Delay
	} else {
		d = p.Delay
		for i := 1; i < attempt; i++ {
			d = time.Duration(float64(d) * p.Backoff)
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter > 0 {
		d += time.Duration((rand.Float64()*2 - 1) * p.Jitter * float64(d))
	}
	return d
}
