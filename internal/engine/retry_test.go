package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Attempts: 10, Base: 20 * time.Millisecond, Max: 50 * time.Millisecond}
	assert.Equal(t, 20*time.Millisecond, b.Delay(1))
	assert.Equal(t, 40*time.Millisecond, b.Delay(2))
	assert.Equal(t, 50*time.Millisecond, b.Delay(3))
	assert.Equal(t, 50*time.Millisecond, b.Delay(9))

	uncapped := Backoff{Base: time.Millisecond}
	assert.Equal(t, 8*time.Millisecond, uncapped.Delay(4))
}

func TestRetryFirstAttemptIsSynchronous(t *testing.T) {
	s := NewManualScheduler(epoch)
	calls := 0
	h := Retry(s, Backoff{Attempts: 3, Base: time.Millisecond}, func(int, bool) bool {
		calls++
		return true
	})
	assert.Equal(t, 1, calls)
	assert.True(t, h.Done())
	assert.Equal(t, 0, s.Pending())
}

func TestRetryBacksOffUntilLast(t *testing.T) {
	s := NewManualScheduler(epoch)
	var at []time.Duration
	var lastSeen []bool
	h := Retry(s, Backoff{Attempts: 4, Base: 10 * time.Millisecond, Max: 25 * time.Millisecond}, func(attempt int, last bool) bool {
		at = append(at, s.Now().Sub(epoch))
		lastSeen = append(lastSeen, last)
		return false
	})
	s.Advance(time.Second)
	assert.Equal(t, []time.Duration{0, 10 * time.Millisecond, 30 * time.Millisecond, 55 * time.Millisecond}, at)
	assert.Equal(t, []bool{false, false, false, true}, lastSeen)
	assert.True(t, h.Done())
	assert.Equal(t, 4, h.Attempts())
}

func TestRetryStop(t *testing.T) {
	s := NewManualScheduler(epoch)
	calls := 0
	h := Retry(s, Backoff{Attempts: 5, Base: 10 * time.Millisecond}, func(int, bool) bool {
		calls++
		return false
	})
	assert.True(t, h.Stop())
	assert.False(t, h.Stop())
	s.Advance(time.Second)
	assert.Equal(t, 1, calls)
	assert.False(t, h.Done())
}
