// Package timer provides the one-shot timer service and monotonic clock
// that clusters use to schedule work on the host event loop.
package timer

import (
	"errors"
	"time"
)

var (
	// ErrLoopStopped is returned when work is submitted to a closed Loop.
	ErrLoopStopped = errors.New("timer: loop stopped")

	// ErrStartFailed is the error injected by Manual.FailNextStart.
	ErrStartFailed = errors.New("timer: start failed")
)

// Handler receives timer expiries. The handler value itself is the
// timer's identity: at most one timer is pending per handler.
type Handler interface {
	TimerFired()
}

// Delegate schedules one-shot timers.
type Delegate interface {
	// StartTimer arms a timer for h, replacing any pending one.
	StartTimer(h Handler, d time.Duration) error

	// CancelTimer disarms the pending timer for h. Once it returns, h will
	// not be called for that timer. Cancelling an idle handler is a no-op.
	CancelTimer(h Handler)

	// IsTimerActive reports whether a timer is pending for h.
	IsTimerActive(h Handler) bool
}

// Clock is a monotonic millisecond clock.
type Clock interface {
	MonotonicMilliseconds() uint64
}
