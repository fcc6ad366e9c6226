package timer

import "time"

// Manual is a deterministic Delegate and Clock for tests. Time only moves
// when Advance or SetNow is called, and expiries run synchronously on the
// calling goroutine.
type Manual struct {
	now    uint64
	seq    uint64
	timers map[Handler]manualTimer

	// failNext makes the next StartTimer return ErrStartFailed.
	failNext bool

	// Started counts successful StartTimer calls.
	Started int
}

type manualTimer struct {
	deadline uint64
	seq      uint64
}

// NewManual returns a Manual clock reading startMs.
func NewManual(startMs uint64) *Manual {
	return &Manual{now: startMs, timers: make(map[Handler]manualTimer)}
}

// StartTimer implements Delegate.
func (m *Manual) StartTimer(h Handler, d time.Duration) error {
	if m.failNext {
		m.failNext = false
		return ErrStartFailed
	}
	m.seq++
	m.timers[h] = manualTimer{deadline: m.now + uint64(d/time.Millisecond), seq: m.seq}
	m.Started++
	return nil
}

// CancelTimer implements Delegate.
func (m *Manual) CancelTimer(h Handler) {
	delete(m.timers, h)
}

// IsTimerActive implements Delegate.
func (m *Manual) IsTimerActive(h Handler) bool {
	_, ok := m.timers[h]
	return ok
}

// MonotonicMilliseconds implements Clock.
func (m *Manual) MonotonicMilliseconds() uint64 {
	return m.now
}

// Pending returns the number of armed timers.
func (m *Manual) Pending() int {
	return len(m.timers)
}

// FailNextStart makes the next StartTimer call fail.
func (m *Manual) FailNextStart() {
	m.failNext = true
}

// SetNow moves the clock to ms without firing anything. Moving backwards
// simulates a misbehaving monotonic source.
func (m *Manual) SetNow(ms uint64) {
	m.now = ms
}

// Advance moves the clock forward by d, firing every timer that falls due
// in deadline order. Timers armed by a callback fire within the same call
// if their deadline is reached.
func (m *Manual) Advance(d time.Duration) {
	target := m.now + uint64(d/time.Millisecond)
	for {
		h, t, ok := m.earliest()
		if !ok || t.deadline > target {
			break
		}
		delete(m.timers, h)
		if t.deadline > m.now {
			m.now = t.deadline
		}
		h.TimerFired()
	}
	if target > m.now {
		m.now = target
	}
}

// RunUntilIdle fires timers until none remain or limit expiries have run,
// and returns the number fired.
func (m *Manual) RunUntilIdle(limit int) int {
	fired := 0
	for fired < limit {
		h, t, ok := m.earliest()
		if !ok {
			break
		}
		delete(m.timers, h)
		if t.deadline > m.now {
			m.now = t.deadline
		}
		h.TimerFired()
		fired++
	}
	return fired
}

func (m *Manual) earliest() (Handler, manualTimer, bool) {
	var (
		best  Handler
		bestT manualTimer
		found bool
	)
	for h, t := range m.timers {
		if !found || t.deadline < bestT.deadline || (t.deadline == bestT.deadline && t.seq < bestT.seq) {
			best, bestT, found = h, t, true
		}
	}
	return best, bestT, found
}

var (
	_ Delegate = (*Manual)(nil)
	_ Clock    = (*Manual)(nil)
)
