package engine

import "time"

// Backoff bounds a retry sequence. Delay before attempt n+1 is
// Base * 2^(n-1), capped at Max when Max is positive.
type Backoff struct {
	Attempts int
	Base     time.Duration
	Max      time.Duration
}

func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := b.Base
	for i := 1; i < attempt; i++ {
		d *= 2
		if b.Max > 0 && d >= b.Max {
			return b.Max
		}
	}
	if b.Max > 0 && d > b.Max {
		return b.Max
	}
	return d
}

// RetryHandle controls an in-flight Retry.
type RetryHandle struct {
	timer   Timer
	attempt int
	done    bool
	stopped bool
}

// Stop cancels the remaining attempts. It reports whether anything was
// still scheduled.
func (h *RetryHandle) Stop() bool {
	if h.done || h.stopped {
		return false
	}
	h.stopped = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	return true
}

// Done reports whether try returned true or the last attempt ran.
func (h *RetryHandle) Done() bool { return h.done }

func (h *RetryHandle) Attempts() int { return h.attempt }

// Retry runs try until it returns true or b.Attempts attempts have been made.
// The first attempt runs before Retry returns; the rest are scheduled on s.
// last is true on the final attempt so the caller can degrade instead of
// waiting.
func Retry(s Scheduler, b Backoff, try func(attempt int, last bool) bool) *RetryHandle {
	attempts := b.Attempts
	if attempts < 1 {
		attempts = 1
	}
	h := &RetryHandle{}
	var run func()
	run = func() {
		h.timer = nil
		if h.stopped {
			return
		}
		h.attempt++
		last := h.attempt >= attempts
		if try(h.attempt, last) || last {
			h.done = true
			return
		}
		h.timer = s.AfterFunc(b.Delay(h.attempt), run)
	}
	run()
	return h
}
