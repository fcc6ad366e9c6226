package timer

import (
	"sync"
	"time"

	"github.com/pion/logging"
)

// LoopConfig configures a Loop.
type LoopConfig struct {
	// QueueSize bounds pending posted work. Defaults to 64.
	QueueSize int

	LoggerFactory logging.LoggerFactory
}

// Loop is a single-goroutine event loop. Posted functions and timer
// callbacks run one at a time on the loop goroutine, so state touched only
// from the loop needs no locking.
//
// Loop implements Delegate and Clock. Timer expiry is delivered through the
// queue; a delivery whose timer was cancelled or re-armed in the meantime is
// dropped on the loop goroutine, which makes CancelTimer effective as soon
// as it returns when called from the loop.
type Loop struct {
	log   logging.LeveledLogger
	start time.Time

	queue chan func()
	done  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	closed  bool
	nextGen uint64
	timers  map[Handler]*pending
}

type pending struct {
	t   *time.Timer
	gen uint64
}

// NewLoop starts a loop goroutine.
func NewLoop(cfg LoopConfig) *Loop {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	l := &Loop{
		start:  time.Now(),
		queue:  make(chan func(), cfg.QueueSize),
		done:   make(chan struct{}),
		timers: make(map[Handler]*pending),
	}
	if cfg.LoggerFactory != nil {
		l.log = cfg.LoggerFactory.NewLogger("timer")
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case fn := <-l.queue:
			fn()
		case <-l.done:
			return
		}
	}
}

// Post queues fn to run on the loop goroutine without waiting for it.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	select {
	case l.queue <- fn:
		return nil
	case <-l.done:
		return ErrLoopStopped
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
// It must not be called from the loop goroutine.
func (l *Loop) Do(fn func()) error {
	finished := make(chan struct{})
	if err := l.Post(func() {
		defer close(finished)
		fn()
	}); err != nil {
		return err
	}
	select {
	case <-finished:
		return nil
	case <-l.done:
		// fn may have started before shutdown.
		select {
		case <-finished:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// StartTimer implements Delegate.
func (l *Loop) StartTimer(h Handler, d time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrLoopStopped
	}
	if p, ok := l.timers[h]; ok {
		p.t.Stop()
	}
	l.nextGen++
	gen := l.nextGen
	p := &pending{gen: gen}
	p.t = time.AfterFunc(d, func() {
		if err := l.Post(func() { l.fire(h, gen) }); err != nil && l.log != nil {
			l.log.Debugf("dropping timer expiry: %v", err)
		}
	})
	l.timers[h] = p
	return nil
}

func (l *Loop) fire(h Handler, gen uint64) {
	l.mu.Lock()
	p, ok := l.timers[h]
	if !ok || p.gen != gen {
		l.mu.Unlock()
		return
	}
	delete(l.timers, h)
	l.mu.Unlock()
	h.TimerFired()
}

// CancelTimer implements Delegate.
func (l *Loop) CancelTimer(h Handler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.timers[h]; ok {
		p.t.Stop()
		delete(l.timers, h)
	}
}

// IsTimerActive implements Delegate.
func (l *Loop) IsTimerActive(h Handler) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.timers[h]
	return ok
}

// MonotonicMilliseconds implements Clock.
func (l *Loop) MonotonicMilliseconds() uint64 {
	return uint64(time.Since(l.start) / time.Millisecond)
}

// Close cancels all timers, stops the loop goroutine and waits for it.
// Work still queued is discarded.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	for h, p := range l.timers {
		p.t.Stop()
		delete(l.timers, h)
	}
	l.mu.Unlock()

	close(l.done)
	l.wg.Wait()
}

var (
	_ Delegate = (*Loop)(nil)
	_ Clock    = (*Loop)(nil)
)
