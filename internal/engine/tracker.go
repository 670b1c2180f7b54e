package engine

import (
	"time"

	"github.com/rs/zerolog"

	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

// Tracker attributes balance and inventory changes inside one venue context.
// All methods run on the loop goroutine.
type Tracker interface {
	Name() string
	Handles(v Venue) bool
	IsOpen() bool
	Open(v Venue, source string)
	Close(v Venue)
	OnAction(a Action)
	OnInventoryChanged(scope inventory.Scope)
	// EvaluateBalance re-bases the tracker's balance and classifies the delta.
	// It must not emit; the dispatcher emits the winning result.
	EvaluateBalance() Result
	// Accept commits the state behind a result the dispatcher emitted.
	Accept(r Result)
	// Await hands over the cycle of an unattributed change the tracker asked
	// to keep waiting on.
	Await(c Cycle, r Result)
}

// ContextState is the observable state of a venue context.
type ContextState struct {
	Open             bool
	BaselineBalance  int64
	BaselineSnapshot inventory.Map
	PendingAction    *Action
}

// deps is what every tracker shares with the dispatcher.
type deps struct {
	host      Host
	sched     Scheduler
	arbiter   *Arbiter
	emit      func(Status, []Entry)
	invariant func(format string, args ...any)
	cfg       Config
	log       zerolog.Logger
}

type pendingAction struct {
	action Action
	at     time.Time
	timer  Timer
}

// heldDelta is a balance change that arrived before its action.
type heldDelta struct {
	delta int64
	at    time.Time
	cycle Cycle
}

// venueContext is the state machine shared by all trackers. Concrete trackers
// embed it and override the hooks they care about.
type venueContext struct {
	*deps
	name   string
	venues []Venue
	scopes []inventory.Scope
	log    zerolog.Logger

	openedBy map[Venue]bool
	source   string
	balance  *BalanceTracker
	baseline inventory.Map
	pending  *pendingAction
	held     *heldDelta
	timers   map[*ownedTimer]struct{}
	retries  map[*RetryHandle]struct{}
	onClose  func()
	// unreported holds watched scopes the client had not reported when the
	// context opened. Their first report is the baseline, not a change.
	unreported map[inventory.Scope]bool
}

func newVenueContext(d *deps, name string, venues []Venue, scopes ...inventory.Scope) *venueContext {
	return &venueContext{
		deps:     d,
		name:     name,
		venues:   venues,
		scopes:   scopes,
		log:      d.log.With().Str("venue", name).Logger(),
		openedBy: map[Venue]bool{},
		balance:  NewBalanceTracker(d.host),
		timers:   map[*ownedTimer]struct{}{},
		retries:  map[*RetryHandle]struct{}{},
	}
}

func (c *venueContext) Name() string { return c.name }

func (c *venueContext) Handles(v Venue) bool {
	for _, own := range c.venues {
		if own == v {
			return true
		}
	}
	return false
}

func (c *venueContext) IsOpen() bool { return len(c.openedBy) > 0 }

func (c *venueContext) Open(v Venue, source string) {
	wasOpen := c.IsOpen()
	c.openedBy[v] = true
	if source != "" {
		c.source = source
	}
	if wasOpen {
		return
	}
	if c.host.BalanceReported() {
		c.balance.OnVenueOpen()
	} else {
		c.balance.Reset()
	}
	if len(c.scopes) > 0 {
		c.baseline = c.snapshot()
		c.unreported = map[inventory.Scope]bool{}
		for _, s := range c.scopes {
			if !c.host.ScopeReported(s) {
				c.unreported[s] = true
			}
		}
	}
	c.log.Debug().
		Int64("balance", c.balance.Baseline()).
		Bool("primed", c.balance.Primed()).
		Int("unreported_scopes", len(c.unreported)).
		Msg("context opened")
}

// adoptFirstReport takes the first report of a scope that was unknown at open
// as the baseline. It returns true when the report was consumed that way.
func (c *venueContext) adoptFirstReport(scope inventory.Scope) bool {
	if !c.unreported[scope] {
		return false
	}
	delete(c.unreported, scope)
	c.baseline = c.snapshot()
	c.log.Debug().Str("scope", string(scope)).Msg("first report adopted as baseline")
	return true
}

// reset closes the context whatever opened it and forgets the balance
// baseline.
func (c *venueContext) reset() {
	for v := range c.openedBy {
		c.Close(v)
	}
	c.balance.Reset()
}

func (c *venueContext) Close(v Venue) {
	if !c.openedBy[v] {
		return
	}
	delete(c.openedBy, v)
	if c.IsOpen() {
		return
	}
	for t := range c.timers {
		t.Stop()
	}
	for h := range c.retries {
		h.Stop()
	}
	c.timers = map[*ownedTimer]struct{}{}
	c.retries = map[*RetryHandle]struct{}{}
	c.pending = nil
	c.held = nil
	c.baseline = nil
	c.unreported = nil
	c.source = ""
	if c.onClose != nil {
		c.onClose()
	}
	c.log.Debug().Msg("context closed")
}

func (c *venueContext) OnAction(Action)                    {}
func (c *venueContext) OnInventoryChanged(inventory.Scope) {}
func (c *venueContext) Accept(Result)                      {}
func (c *venueContext) Await(Cycle, Result)                {}

func (c *venueContext) State() ContextState {
	st := ContextState{
		Open:            c.IsOpen(),
		BaselineBalance: c.balance.Baseline(),
	}
	if c.baseline != nil {
		st.BaselineSnapshot = c.baseline.Clone()
	}
	if c.pending != nil {
		a := c.pending.action
		st.PendingAction = &a
	}
	return st
}

func (c *venueContext) now() time.Time { return c.sched.Now() }

type ownedTimer struct {
	owner *venueContext
	timer Timer
}

func (t *ownedTimer) Stop() bool {
	delete(t.owner.timers, t)
	return t.timer.Stop()
}

// after schedules fn and ties it to the context: closing cancels it.
func (c *venueContext) after(d time.Duration, fn func()) Timer {
	t := &ownedTimer{owner: c}
	c.timers[t] = struct{}{}
	t.timer = c.sched.AfterFunc(d, func() {
		delete(c.timers, t)
		if !c.IsOpen() {
			return
		}
		fn()
	})
	return t
}

// retry runs a bounded retry owned by the context.
func (c *venueContext) retry(try func(attempt int, last bool) bool) *RetryHandle {
	var h *RetryHandle
	h = Retry(c.sched, c.cfg.MetadataRetry, func(attempt int, last bool) bool {
		if !c.IsOpen() {
			return true
		}
		ok := try(attempt, last)
		if ok || last {
			delete(c.retries, h)
		}
		if !ok && last {
			retriesExhausted.WithLabelValues(c.name).Inc()
		}
		return ok
	})
	if !h.Done() {
		c.retries[h] = struct{}{}
	}
	return h
}

// setPending parks a until its balance change arrives. A newer action
// replaces an older one; an action nobody consumes expires silently.
func (c *venueContext) setPending(a Action) {
	c.clearPending()
	p := &pendingAction{action: a, at: c.now()}
	p.timer = c.after(c.cfg.PendingStale, func() {
		if c.pending == p {
			c.pending = nil
			c.log.Debug().Str("action", string(a.Name)).Msg("pending action expired")
		}
	})
	c.pending = p
}

func (c *venueContext) clearPending() {
	if c.pending == nil {
		return
	}
	c.pending.timer.Stop()
	c.pending = nil
}

// freshPending returns the pending action when it is young enough to explain
// a balance change.
func (c *venueContext) freshPending() *Action {
	if c.pending == nil {
		return nil
	}
	if c.now().Sub(c.pending.at) > c.cfg.PendingStale {
		c.clearPending()
		return nil
	}
	return &c.pending.action
}

// hold keeps an unattributed delta and its cycle for a late action.
func (c *venueContext) hold(delta int64, cycle Cycle) {
	c.held = &heldDelta{delta: delta, at: c.now(), cycle: cycle}
}

// takeHeld returns and forgets the held delta when it is inside the match
// window and moves the purse in direction sign.
func (c *venueContext) takeHeld(sign ledger.Sign) *heldDelta {
	h := c.held
	if h == nil {
		return nil
	}
	if c.now().Sub(h.at) > c.cfg.MatchWindow {
		c.held = nil
		return nil
	}
	if !signMatches(sign, h.delta) {
		return nil
	}
	c.held = nil
	return h
}

// claimAndEmit emits entries for a late resolution only when the cycle can
// still be claimed.
func (c *venueContext) claimAndEmit(cycle Cycle, status Status, entries []Entry) bool {
	if !c.arbiter.Claim(cycle) {
		c.log.Debug().Uint64("cycle", uint64(cycle)).Msg("late claim lost")
		return false
	}
	c.emit(status, entries)
	return true
}

// resolveOrPend settles a held delta with a just-arrived action, or parks the
// action until its balance change shows up.
func (c *venueContext) resolveOrPend(a Action, sign ledger.Sign, build func(delta int64) []Entry) {
	if h := c.takeHeld(sign); h != nil {
		c.claimAndEmit(h.cycle, Confirmed, build(h.delta))
		return
	}
	c.setPending(a)
}

// sourceFor picks the most specific label available.
func (c *venueContext) sourceFor(a *Action, fallback string) string {
	if a != nil && a.Counterparty != "" {
		return a.Counterparty
	}
	if c.source != "" {
		return c.source
	}
	return fallback
}

func (c *venueContext) snapshot() inventory.Map {
	return inventory.Snapshot(c.host, c.scopes...)
}
