package llm

import (
	"context"
	"sync"
	"time"
)

// Limiter tracks a fixed-window request budget shared by every completion in
// the process, plus the consecutive-failure count used for circuit breaking.
// It is constructed once in bootstrap and handed to the CompletionClient; it
// is never a hidden singleton. The clock and sleeper are injectable so tests
// run on virtual time.
type Limiter struct {
	mu          sync.Mutex
	perWindow   int
	window      time.Duration
	windowStart time.Time
	count       int
	failures    int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter constructs a Limiter. perWindow <= 0 disables limiting.
// A nil now falls back to time.Now.
func NewLimiter(perWindow int, window time.Duration, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		perWindow: perWindow,
		window:    window,
		now:       now,
		sleep:     sleepContext,
	}
}

// Acquire reserves one request slot in the current window, blocking
// cooperatively until the window rolls over when the budget is spent.
// Reserving inside the lock keeps "read window, wait, increment" a single
// critical section across concurrent callers.
func (l *Limiter) Acquire(ctx context.Context) error {
	if l == nil || l.perWindow <= 0 {
		return ctx.Err()
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.mu.Lock()
		now := l.now()
		if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
			l.windowStart = now
			l.count = 0
		}
		if l.count < l.perWindow {
			l.count++
			l.mu.Unlock()
			return nil
		}
		wait := l.windowStart.Add(l.window).Sub(now)
		l.mu.Unlock()
		if wait <= 0 {
			continue
		}
		if err := l.sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// RecordSuccess clears the consecutive-failure count.
func (l *Limiter) RecordSuccess() {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.failures = 0
	l.mu.Unlock()
}

// RecordFailure bumps and returns the consecutive-failure count.
func (l *Limiter) RecordFailure() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failures++
	return l.failures
}

// ConsecutiveFailures returns the current consecutive-failure count.
func (l *Limiter) ConsecutiveFailures() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failures
}

// RequestsInWindow reports how many slots the current window has handed out.
func (l *Limiter) RequestsInWindow() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.windowStart.IsZero() || now.Sub(l.windowStart) >= l.window {
		return 0
	}
	return l.count
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
