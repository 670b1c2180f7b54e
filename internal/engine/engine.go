// Package engine reconciles balance and inventory changes reported by the
// game client into typed ledger transactions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

// Sink receives emitted transactions. *ledger.Ledger satisfies it.
type Sink interface {
	Append(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
}

const appendTimeout = 5 * time.Second

// Engine dispatches host events to the venue trackers and the arbiter. It is
// not safe for concurrent use; drive it from a single goroutine (see Loop).
type Engine struct {
	deps      *deps
	arbiter   *Arbiter
	trackers  []Tracker
	sink      Sink
	character string
	log       zerolog.Logger
}

func New(host Host, sched Scheduler, sink Sink, cfg Config) *Engine {
	e := &Engine{
		sink:      sink,
		character: cfg.CharacterKey,
		log:       log.With().Str("component", "engine").Logger(),
	}
	e.deps = &deps{
		host:      host,
		sched:     sched,
		emit:      e.emit,
		invariant: e.Invariant,
		cfg:       cfg,
		log:       e.log,
	}
	e.arbiter = NewArbiter(sched, host, cfg, e.emit, e.log.With().Str("component", "arbiter").Logger())
	e.deps.arbiter = e.arbiter

	// Registration order breaks ties between results of equal status.
	e.trackers = append(e.trackers,
		newVendorTracker(e.deps),
		newRepairTracker(e.deps),
		newAuctionTracker(e.deps),
		newBlackMarketTracker(e.deps),
		newMailboxTracker(e.deps),
		newTradeTracker(e.deps),
		newPersonalBankTracker(e.deps),
		newGuildBankTracker(e.deps),
		newWarbandBankTracker(e.deps),
	)
	for _, t := range newGoldVenues(e.deps) {
		e.trackers = append(e.trackers, t)
	}
	// Without a reading yet, the first one becomes the baseline.
	if host.BalanceReported() {
		e.arbiter.Prime()
	}
	return e
}

// resettable is implemented by trackers embedding venueContext.
type resettable interface {
	adoptFirstReport(scope inventory.Scope) bool
	reset()
}

func (e *Engine) Arbiter() *Arbiter { return e.arbiter }

func (e *Engine) Trackers() []Tracker { return e.trackers }

func (e *Engine) Character() string { return e.character }

// Dispatch applies one host event.
func (e *Engine) Dispatch(ev Event) {
	switch ev := ev.(type) {
	case VenueOpened:
		for _, t := range e.trackers {
			if t.Handles(ev.Venue) {
				t.Open(ev.Venue, ev.Source)
			}
		}
	case VenueClosed:
		for _, t := range e.trackers {
			if t.Handles(ev.Venue) {
				t.Close(ev.Venue)
			}
		}
	case BalanceChanged:
		e.onBalanceChanged()
	case InventoryChanged:
		for _, t := range e.trackers {
			if !t.IsOpen() {
				continue
			}
			if r, ok := t.(resettable); ok && r.adoptFirstReport(ev.Scope) {
				continue
			}
			t.OnInventoryChanged(ev.Scope)
		}
	case ActionSignal:
		for _, t := range e.trackers {
			if t.IsOpen() && t.Handles(ev.Action.Venue) {
				t.OnAction(ev.Action)
			}
		}
	case CharacterChanged:
		e.switchCharacter(ev.Key)
	default:
		e.log.Warn().Str("event", fmt.Sprintf("%T", ev)).Msg("unknown event")
	}
}

// switchCharacter closes every open context and settles the pending
// attribution under the old character, then re-bases on the new purse.
func (e *Engine) switchCharacter(key string) {
	if key == "" || key == e.character {
		return
	}
	for _, t := range e.trackers {
		if r, ok := t.(resettable); ok {
			r.reset()
		}
	}
	e.arbiter.Flush()
	e.arbiter.Reset()
	prev := e.character
	e.character = key
	if e.deps.host.BalanceReported() {
		e.arbiter.Prime()
	}
	e.log.Info().Str("from", prev).Str("to", key).Msg("character changed")
}

type evaluation struct {
	tracker Tracker
	result  Result
}

func (e *Engine) onBalanceChanged() {
	var open []Tracker
	for _, t := range e.trackers {
		if t.IsOpen() {
			open = append(open, t)
		}
	}
	obs := e.arbiter.OnBalanceChanged(len(open) > 0)

	// Every open tracker evaluates so its baseline moves past this change.
	evals := make([]evaluation, 0, len(open))
	for _, t := range open {
		evals = append(evals, evaluation{tracker: t, result: t.EvaluateBalance()})
	}
	if obs.Delta == 0 || obs.Cycle != 0 {
		return
	}

	var best *evaluation
	for i := range evals {
		ev := &evals[i]
		if ev.result.Status == Unattributed {
			continue
		}
		if !e.consistent(ev) {
			continue
		}
		if best == nil || ev.result.Status > best.result.Status {
			best = ev
		}
	}
	if best != nil {
		e.log.Debug().
			Str("tracker", best.tracker.Name()).
			Str("status", best.result.Status.String()).
			Int64("delta", best.result.Delta).
			Msg("balance change attributed")
		e.emit(best.result.Status, best.result.Entries)
		best.tracker.Accept(best.result)
		if rest := obs.Delta - best.result.Delta; rest != 0 && !obs.Ignored {
			// The context missed part of the change, typically one that
			// happened before it opened.
			e.arbiter.BeginCycle(rest)
		}
		return
	}
	if obs.Ignored {
		return
	}
	cycle := e.arbiter.BeginCycle(obs.Delta)
	for _, ev := range evals {
		if ev.result.Await && ev.result.Delta == obs.Delta {
			ev.tracker.Await(cycle, ev.result)
		}
	}
}

// consistent checks a result's entries add up to the delta it claims.
func (e *Engine) consistent(ev *evaluation) bool {
	if sum := sumValues(ev.result.Entries); sum != ev.result.Delta {
		e.Invariant("%s entries sum to %d, delta is %d", ev.tracker.Name(), sum, ev.result.Delta)
		return false
	}
	return true
}

func (e *Engine) emit(status Status, entries []Entry) {
	now := e.deps.sched.Now()
	for _, en := range entries {
		if en.Quantity < 0 {
			e.Invariant("negative quantity %d for %s", en.Quantity, en.Kind)
			continue
		}
		at := en.At
		if at.IsZero() {
			at = now
		}
		tx := ledger.Transaction{
			Kind:          en.Kind,
			Timestamp:     at,
			CharacterKey:  e.character,
			Value:         en.Value,
			ItemID:        int64(en.ItemID),
			ItemLink:      en.Link,
			Quantity:      en.Quantity,
			Source:        en.Source,
			Confidence:    status.Confidence(),
			LowConfidence: en.LowConfidence,
		}
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		_, err := e.sink.Append(ctx, tx)
		cancel()
		if err != nil {
			if errors.Is(err, ledger.ErrInvalidTransaction) || errors.Is(err, ledger.ErrSignMismatch) {
				e.Invariant("emitted %s: %v", tx.Kind, err)
				continue
			}
			appendErrors.Inc()
			e.log.Error().Err(err).Str("kind", string(tx.Kind)).Msg("ledger append failed")
			continue
		}
		transactionsEmitted.WithLabelValues(string(tx.Kind), status.String()).Inc()
	}
}

// Flush resolves a pending arbitration now. Call it before shutting down.
func (e *Engine) Flush() {
	e.arbiter.Flush()
}

// InvariantError is the panic value raised for invariant violations in
// strict mode.
type InvariantError struct {
	Msg string
}

func (e InvariantError) Error() string { return "engine invariant violated: " + e.Msg }

// Invariant reports a programming error. Strict engines panic; otherwise the
// violation is logged and counted and the offending entry is dropped.
func (e *Engine) Invariant(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	invariantViolations.Inc()
	if e.deps.cfg.StrictInvariants {
		panic(InvariantError{Msg: msg})
	}
	e.log.Error().Str("violation", msg).Msg("engine invariant violated")
}
