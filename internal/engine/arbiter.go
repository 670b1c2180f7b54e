package engine

import (
	"time"

	"github.com/rs/zerolog"

	"goldledger/internal/ledger"
)

// Cycle identifies one arbitration cycle. Zero is never issued.
type Cycle uint64

// PendingAttribution is the single balance change awaiting a claim.
type PendingAttribution struct {
	Cycle      Cycle
	Amount     int64
	ObservedAt time.Time
}

// Observation is the arbiter's view of one balance change.
type Observation struct {
	Delta int64
	// Cycle is set when the arbiter began a cycle on its own.
	Cycle Cycle
	// Deferred means a venue context is open and the dispatcher decides.
	Deferred bool
	// Ignored means the delta is below the minimum magnitude; it never
	// becomes a generic entry.
	Ignored bool
}

// Arbiter owns the global balance baseline and the fallback attribution of
// changes no venue context claims.
type Arbiter struct {
	sched   Scheduler
	balance *BalanceTracker
	emit    func(Status, []Entry)
	timeout time.Duration
	stale   time.Duration
	min     int64
	log     zerolog.Logger

	last    Cycle
	pending *PendingAttribution
	timer   Timer
}

func NewArbiter(sched Scheduler, src BalanceSource, cfg Config, emit func(Status, []Entry), logger zerolog.Logger) *Arbiter {
	return &Arbiter{
		sched:   sched,
		balance: NewBalanceTracker(src),
		emit:    emit,
		timeout: cfg.ArbiterTimeout,
		stale:   cfg.ArbiterStale,
		min:     cfg.MinMagnitude,
		log:     logger,
	}
}

// Prime records the current balance as the global baseline.
func (a *Arbiter) Prime() {
	a.balance.OnVenueOpen()
}

// Reset drops the global baseline without resolving anything. The next
// reading becomes the baseline.
func (a *Arbiter) Reset() {
	a.balance.Reset()
}

// OnBalanceChanged re-bases the global tracker. With no venue context open it
// begins a cycle itself; otherwise it defers to the dispatcher.
func (a *Arbiter) OnBalanceChanged(contextOpen bool) Observation {
	d := a.balance.OnBalanceChanged()
	if d == 0 {
		return Observation{}
	}
	obs := Observation{Delta: d}
	if abs64(d) < a.min {
		a.log.Debug().Int64("delta", d).Msg("balance change below threshold")
		obs.Ignored = true
		return obs
	}
	if contextOpen {
		obs.Deferred = true
		return obs
	}
	obs.Cycle = a.BeginCycle(d)
	return obs
}

// BeginCycle records amount as unattributed and arms the resolve timer. An
// attribution still pending from an earlier cycle is resolved first.
func (a *Arbiter) BeginCycle(amount int64) Cycle {
	if a.pending != nil {
		a.Resolve(a.pending.Cycle)
	}
	a.last++
	c := a.last
	a.pending = &PendingAttribution{Cycle: c, Amount: amount, ObservedAt: a.sched.Now()}
	a.timer = a.sched.AfterFunc(a.timeout, func() { a.Resolve(c) })
	arbiterCycles.WithLabelValues("begun").Inc()
	a.log.Debug().Uint64("cycle", uint64(c)).Int64("amount", amount).Msg("arbitration cycle begun")
	return c
}

// Claim hands cycle c to a venue context and ends it. It fails when c is not
// the current unresolved cycle, which covers a cycle already claimed or
// resolved; only the caller that gets true may emit entries for the change.
func (a *Arbiter) Claim(c Cycle) bool {
	p := a.pending
	if c == 0 || p == nil || p.Cycle != c {
		return false
	}
	a.stopTimer()
	a.pending = nil
	arbiterCycles.WithLabelValues("claimed").Inc()
	return true
}

// Resolve ends cycle c. An unclaimed change younger than the staleness
// ceiling becomes a generic entry; an older one is dropped.
func (a *Arbiter) Resolve(c Cycle) {
	p := a.pending
	if p == nil || p.Cycle != c {
		return
	}
	a.pending = nil
	a.stopTimer()
	age := a.sched.Now().Sub(p.ObservedAt)
	if age > a.stale {
		arbiterCycles.WithLabelValues("stale").Inc()
		a.log.Debug().Uint64("cycle", uint64(c)).Dur("age", age).Msg("dropping stale attribution")
		return
	}
	arbiterCycles.WithLabelValues("generic").Inc()
	a.log.Info().Int64("amount", p.Amount).Msg("unclaimed balance change")
	a.emit(Unattributed, []Entry{{
		Kind:   ledger.UnclaimedKind(p.Amount),
		Value:  p.Amount,
		Source: ledger.UnknownSource,
		At:     p.ObservedAt,
	}})
}

// Flush resolves whatever is pending right now.
func (a *Arbiter) Flush() {
	if a.pending != nil {
		a.Resolve(a.pending.Cycle)
	}
}

func (a *Arbiter) Pending() (PendingAttribution, bool) {
	if a.pending == nil {
		return PendingAttribution{}, false
	}
	return *a.pending, true
}

func (a *Arbiter) Baseline() int64 {
	return a.balance.Baseline()
}

func (a *Arbiter) stopTimer() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
