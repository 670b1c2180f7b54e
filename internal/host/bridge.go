package host

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"goldledger/internal/engine"
)

var ErrClosed = errors.New("host bridge closed")

// Poster runs a function on the goroutine that owns engine state.
type Poster interface {
	Post(fn func()) bool
}

// Dispatcher consumes engine events.
type Dispatcher interface {
	Dispatch(ev engine.Event)
}

// Inline runs posted functions immediately. Use it when the caller already
// is the only goroutine touching the engine.
type Inline struct{}

func (Inline) Post(fn func()) bool {
	fn()
	return true
}

// Bridge applies envelopes to the mirror and the engine in one ordered step,
// so a tracker never reads a balance or inventory newer than the event it is
// handling.
type Bridge struct {
	mirror *Mirror
	poster Poster
	engine Dispatcher
}

func NewBridge(m *Mirror, p Poster, d Dispatcher) *Bridge {
	return &Bridge{mirror: m, poster: p, engine: d}
}

func (b *Bridge) Mirror() *Mirror { return b.mirror }

// Submit queues envs in order. Envelope errors are logged and counted on the
// engine goroutine; Submit itself only fails when the loop is gone.
func (b *Bridge) Submit(envs ...Envelope) error {
	for _, env := range envs {
		ok := b.poster.Post(func() {
			ev, err := b.mirror.Apply(env)
			if err != nil || ev == nil {
				return
			}
			b.engine.Dispatch(ev)
		})
		if !ok {
			return ErrClosed
		}
	}
	return nil
}

// Replay feeds a recorded envelope script through eng on a virtual clock.
// Envelopes with a timestamp move the clock forward first; the clock is then
// run past every outstanding timer so late attributions settle.
func Replay(envs []Envelope, m *Mirror, sched *engine.ManualScheduler, eng *engine.Engine) {
	b := NewBridge(m, Inline{}, eng)
	for _, env := range envs {
		if env.At != nil {
			sched.AdvanceTo(*env.At)
		}
		_ = b.Submit(env)
	}
	sched.Advance(time.Minute)
	eng.Flush()
}

// ReadScript parses a recorded session: one envelope, or an array of them,
// per line. Blank lines and lines starting with # are skipped.
func ReadScript(r io.Reader) ([]Envelope, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)
	var out []Envelope
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		envs, err := Decode(b)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, envs...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
