package httputil

import "sync/atomic"

// Limiter bounds the number of in-flight fire-and-forget dispatches.
// When the bound is reached new work is dropped rather than queued, and
// the drop is counted for monitoring.
type Limiter struct {
	slots   chan struct{}
	dropped atomic.Int64
}

// NewLimiter creates a limiter admitting at most capacity concurrent
// dispatches.
func NewLimiter(capacity int) *Limiter {
	if capacity <= 0 {
		capacity = 8
	}
	return &Limiter{
		slots: make(chan struct{}, capacity),
	}
}

// TryAcquire claims a slot without blocking. A false return means the
// limiter is saturated and the caller should drop the work.
func (l *Limiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		return true
	default:
		l.dropped.Add(1)
		return false
	}
}

// Release returns a slot. Call only after a successful TryAcquire.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}

// Dropped returns the number of dispatches refused at capacity.
func (l *Limiter) Dropped() int64 {
	return l.dropped.Load()
}

// InFlight returns the number of slots currently claimed.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}
