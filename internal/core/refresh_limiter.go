package core

// refresh_limiter.go bounds concurrent background refreshes.
//
// Fire-and-forget refresh requests (refresh, refresh-all, the implicit
// check behind data reads) each run in their own goroutine; the limiter
// uses a semaphore pattern to cap how many hit the disk at once, so a
// refresh-all over the whole catalog cannot exhaust file handles or
// memory. When all slots are occupied, Acquire waits up to maxWait before
// failing with ErrTooManyRefreshes.
//
// WaitForDrain supports graceful shutdown: it blocks until all in-flight
// refreshes complete.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyRefreshes is returned when all refresh slots are occupied and
// the wait timeout expires.
var ErrTooManyRefreshes = errors.New("too many concurrent refreshes, please try again later")

// DefaultMaxConcurrentRefreshes is the default limit for parallel refreshes.
const DefaultMaxConcurrentRefreshes = 4

// DefaultRefreshMaxWait is how long to wait for a slot before rejecting.
const DefaultRefreshMaxWait = 30 * time.Second

// RefreshLimiter controls concurrent refresh work using a semaphore pattern.
type RefreshLimiter struct {
	semaphore chan struct{}
	maxWait   time.Duration

	mu     sync.RWMutex
	active int
}

// NewRefreshLimiter creates a limiter allowing at most maxConcurrent
// simultaneous refreshes. Requests that cannot acquire a slot within
// maxWait receive ErrTooManyRefreshes.
func NewRefreshLimiter(maxConcurrent int, maxWait time.Duration) *RefreshLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRefreshes
	}
	if maxWait <= 0 {
		maxWait = DefaultRefreshMaxWait
	}

	return &RefreshLimiter{
		semaphore: make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
	}
}

// Acquire attempts to acquire a refresh slot.
// Returns nil on success, ErrTooManyRefreshes if the timeout expires.
// The caller MUST call Release() when the refresh completes (use defer).
func (l *RefreshLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil

	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrTooManyRefreshes

	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire attempts to acquire a slot without blocking.
func (l *RefreshLimiter) TryAcquire() bool {
	select {
	case l.semaphore <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return true
	default:
		return false
	}
}

// Release releases a previously acquired slot.
// Must be called exactly once for each successful Acquire/TryAcquire.
func (l *RefreshLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()

	<-l.semaphore
}

// ActiveCount returns the number of refreshes currently running.
func (l *RefreshLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the maximum allowed concurrent refreshes.
func (l *RefreshLimiter) MaxConcurrent() int {
	return cap(l.semaphore)
}

// WaitForDrain blocks until all active refreshes complete or the context
// is cancelled. Used for graceful shutdown.
func (l *RefreshLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}
