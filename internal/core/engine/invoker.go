package engine

import (
	"context"
	"errors"
	"time"

	"github.com/inferbatch/inferbatch/internal/core"
)

// Caller performs one guarded invocation of a record. Inference clients
// implement it by converting every remote failure into an error-annotated
// record; the error return is reserved for control signals such as
// *LimitExceededError raised by the limiter stage.
type Caller interface {
	Call(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error)

// Call invokes the function.
func (f CallerFunc) Call(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
	return f(ctx, rec)
}

// LimitedCaller checks the shared limiter before delegating. When the ceiling
// is spent it surfaces the limit signal without invoking the delegate, so the
// remote endpoint never sees the over-budget attempt.
type LimitedCaller struct {
	Limiter *Limiter
	Next    Caller
}

// Call attempts the limiter, then delegates.
func (c *LimitedCaller) Call(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
	if err := c.Limiter.Attempt(); err != nil {
		return nil, err
	}
	return c.Next.Call(ctx, rec)
}

// RetryingCaller absorbs limit signals from its delegate: it sleeps out the
// signaled window remainder and retries the same record. Every other outcome,
// success or failure, passes through unchanged, so callers above this stage
// never observe a rate-limit signal. Each worker blocks and retries
// independently; the only shared state is the limiter's bookkeeping.
type RetryingCaller struct {
	Next Caller

	// Sleep is replaceable for tests; nil means time.Sleep.
	Sleep func(time.Duration)
}

// Call invokes the delegate, retrying after each rate-limit signal.
func (c *RetryingCaller) Call(ctx context.Context, rec core.Record) (core.AnnotatedRecord, error) {
	sleep := c.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for {
		result, err := c.Next.Call(ctx, rec)
		var limitErr *LimitExceededError
		if errors.As(err, &limitErr) {
			sleep(limitErr.RetryAfter)
			continue
		}
		return result, err
	}
}

// Guarded composes the rate gate in front of an inference caller: limiter
// check first, then transparent sleep-and-retry. Every outbound call passes
// this gate before reaching the remote endpoint.
func Guarded(limiter *Limiter, next Caller) Caller {
	return &RetryingCaller{Next: &LimitedCaller{Limiter: limiter, Next: next}}
}
