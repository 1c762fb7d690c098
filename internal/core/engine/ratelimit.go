package engine

import (
	"fmt"
	"sync"
	"time"
)

// DefaultWindow is the production rate-limit window. The requests-per-minute
// ceiling from configuration is enforced over this interval.
const DefaultWindow = time.Minute

// LimitExceededError signals that the current window's ceiling is spent. It
// carries the time remaining until the window rolls over so callers can sleep
// exactly that long before retrying.
type LimitExceededError struct {
	RetryAfter time.Duration
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("rate limit exceeded, window resets in %s", e.RetryAfter)
}

// Limiter enforces a fixed-window call ceiling shared across workers.
//
// The mutex scopes only the check-and-increment bookkeeping, never the
// guarded operation itself: workers serialize briefly on the counter and then
// run their network calls concurrently. That is what lets max_workers
// requests stay in flight while the aggregate rate stays bounded.
type Limiter struct {
	// Clock supplies the current time. Tests replace it; production code
	// leaves it nil and gets time.Now.
	Clock func() time.Time

	mu          sync.Mutex
	ceiling     int
	window      time.Duration
	windowStart time.Time
	calls       int
}

// NewLimiter builds a limiter allowing ceiling calls per window. A ceiling or
// window below 1 is a configuration mistake, not a runtime signal, so it
// fails construction.
func NewLimiter(ceiling int, window time.Duration) (*Limiter, error) {
	if ceiling < 1 {
		return nil, fmt.Errorf("rate limit ceiling must be at least 1, got %d", ceiling)
	}
	if window <= 0 {
		return nil, fmt.Errorf("rate limit window must be positive, got %s", window)
	}
	return &Limiter{ceiling: ceiling, window: window}, nil
}

// Attempt records one invocation attempt. It returns nil when the call may
// proceed and a *LimitExceededError when the incremented count would overflow
// the ceiling for the current window. Safe for concurrent use.
func (l *Limiter) Attempt() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if l.windowStart.IsZero() {
		l.windowStart = now
	}

	elapsed := now.Sub(l.windowStart)
	if elapsed >= l.window {
		l.calls = 0
		l.windowStart = now
		elapsed = 0
	}

	l.calls++
	if l.calls > l.ceiling {
		return &LimitExceededError{RetryAfter: l.window - elapsed}
	}
	return nil
}

func (l *Limiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}
