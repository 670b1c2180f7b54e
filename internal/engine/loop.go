package engine

import (
	"context"
	"errors"
	"time"
)

var ErrLoopStopped = errors.New("engine loop stopped")

// Loop is the real-time scheduler and the single goroutine that owns engine
// state. Host events and fired timers are both funneled through it.
type Loop struct {
	queue   chan func()
	done    chan struct{}
	now     func() time.Time
	handler func(Event)
}

func NewLoop(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 1
	}
	return &Loop{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
		now:   time.Now,
	}
}

// Run drains the queue until ctx is canceled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

// Post queues fn to run on the loop goroutine. It blocks while the queue is
// full and returns false once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Bind sets the event handler used by Submit. Call it before Run.
func (l *Loop) Bind(handler func(Event)) {
	l.handler = handler
}

// Submit hands ev to the bound handler on the loop goroutine. It is safe to
// call from any goroutine.
func (l *Loop) Submit(ev Event) bool {
	if l.handler == nil {
		return false
	}
	h := l.handler
	return l.Post(func() { h(ev) })
}

// Call runs fn on the loop goroutine and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	ok := l.Post(func() {
		defer close(finished)
		fn()
	})
	if !ok {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

func (l *Loop) Now() time.Time {
	return l.now()
}

// AfterFunc schedules fn on the loop goroutine after d. Stop must be called
// from the loop goroutine; a stopped timer never runs even if its wall-clock
// deadline already passed and the callback is sitting in the queue.
func (l *Loop) AfterFunc(d time.Duration, fn func()) Timer {
	t := &loopTimer{}
	t.wall = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.ran = true
			fn()
		})
	})
	return t
}

type loopTimer struct {
	wall    *time.Timer
	stopped bool
	ran     bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.ran {
		return false
	}
	t.stopped = true
	t.wall.Stop()
	return true
}
