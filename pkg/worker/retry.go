package worker

import (
	"context"
	"time"

	"github.com/petrijr/flowtree/pkg/scheduler"
)

// RetryPolicy controls how WithRetry re-runs a failing worker.
type RetryPolicy struct {
	// MaxAttempts is the total number of runs, including the first.
	// Values <= 0 mean a single run.
	MaxAttempts int

	// InitialBackoff is the delay before the first retry. Zero retries
	// immediately.
	InitialBackoff time.Duration

	// BackoffMultiplier grows the delay after every retry. Values <= 0
	// default to 2.0.
	BackoffMultiplier float64

	// MaxBackoff caps the delay. Zero means no cap.
	MaxBackoff time.Duration
}

// RetryBuilder provides a fluent way to construct RetryPolicy values.
type RetryBuilder struct {
	policy RetryPolicy
}

// Retry creates a RetryBuilder with the given maxAttempts.
//
// maxAttempts <= 0 is treated as 1 (no retries).
func Retry(maxAttempts int) RetryBuilder {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return RetryBuilder{policy: RetryPolicy{MaxAttempts: maxAttempts}}
}

// WithExponentialBackoff configures exponential backoff:
//
//   - initial is the delay before the first retry.
//   - multiplier > 1 grows the delay each attempt (default 2.0 if <= 0).
//   - max caps the delay; if <= 0, there is no cap.
//
// Example:
//
//	worker.Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second)
func (r RetryBuilder) WithExponentialBackoff(initial time.Duration, multiplier float64, max time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = initial
	p.MaxBackoff = max
	if multiplier <= 0 {
		multiplier = 2.0
	}
	p.BackoffMultiplier = multiplier
	return RetryBuilder{policy: p}
}

// WithConstantBackoff configures a constant backoff between retries.
func (r RetryBuilder) WithConstantBackoff(delay time.Duration) RetryBuilder {
	p := r.policy
	p.InitialBackoff = delay
	p.MaxBackoff = 0
	p.BackoffMultiplier = 1.0
	return RetryBuilder{policy: p}
}

// Immediate disables any sleep between retries.
func (r RetryBuilder) Immediate() RetryBuilder {
	p := r.policy
	p.InitialBackoff = 0
	p.MaxBackoff = 0
	p.BackoffMultiplier = 0
	return RetryBuilder{policy: p}
}

// Policy returns the built RetryPolicy.
func (r RetryBuilder) Policy() RetryPolicy {
	return r.policy
}

// Delays returns the wait before each retry, in order. It has
// MaxAttempts-1 entries.
func (p RetryPolicy) Delays() []time.Duration {
	attempts := p.MaxAttempts
	if attempts <= 1 {
		return nil
	}
	multiplier := p.BackoffMultiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}

	delays := make([]time.Duration, 0, attempts-1)
	backoff := p.InitialBackoff
	for i := 1; i < attempts; i++ {
		delay := backoff
		if p.MaxBackoff > 0 && delay > p.MaxBackoff {
			delay = p.MaxBackoff
		}
		delays = append(delays, delay)

		next := time.Duration(float64(backoff) * multiplier)
		if p.MaxBackoff > 0 && next > p.MaxBackoff {
			next = p.MaxBackoff
		}
		backoff = next
	}
	return delays
}

// WithRetry re-runs w after it fails, following policy. Values emitted by
// failed attempts have already been delivered. Cancellation is never
// retried.
func WithRetry[T any](w Worker[T], policy RetryPolicy) Worker[T] {
	return &retryWorker[T]{inner: w, policy: policy}
}

type retryWorker[T any] struct {
	inner  Worker[T]
	policy RetryPolicy
}

func (r *retryWorker[T]) Run(ctx context.Context, emit Emit[T]) error {
	delays := r.policy.Delays()
	for attempt := 0; ; attempt++ {
		err := r.inner.Run(ctx, emit)
		if err == nil || ctx.Err() != nil || attempt >= len(delays) {
			return err
		}
		if delays[attempt] > 0 {
			scheduler.Detach(ctx)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delays[attempt]):
			}
		}
	}
}

func (r *retryWorker[T]) SameWork(other any) bool {
	o, ok := other.(*retryWorker[T])
	return ok && o.policy == r.policy && SameWork(r.inner, o.inner)
}
