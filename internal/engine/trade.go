package engine

import (
	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

const tradeSource = "Trade"

// tradeTracker logs the items of a completed trade at once and the gold once
// the balance reflects it. Action.Amount is the money given and Action.Extra
// the money received.
type tradeTracker struct {
	*venueContext
}

func newTradeTracker(d *deps) *tradeTracker {
	return &tradeTracker{venueContext: newVenueContext(d, "trade", []Venue{VenueTrade})}
}

func tradeNet(a *Action) int64 {
	return a.Extra - a.Amount
}

func (t *tradeTracker) OnAction(a Action) {
	if a.Name != ActionComplete {
		return
	}
	source := t.sourceFor(&a, tradeSource)
	var items []Entry
	items = append(items, itemEntries(ledger.KindTradeItemOut, a.Items, source)...)
	items = append(items, itemEntries(ledger.KindTradeItemIn, a.Received, source)...)
	if len(items) > 0 {
		t.emit(Confirmed, items)
	}
	// Without reported amounts any direction the purse moved is accepted.
	sign := ledger.SignIncome
	switch net := tradeNet(&a); {
	case net < 0:
		sign = ledger.SignExpense
	case net == 0 && t.held != nil && t.held.delta < 0:
		sign = ledger.SignExpense
	}
	t.resolveOrPend(a, sign, func(delta int64) []Entry { return []Entry{t.goldEntry(delta, source)} })
}

func (t *tradeTracker) EvaluateBalance() Result {
	delta := t.balance.OnBalanceChanged()
	if delta == 0 {
		return unattributed(0)
	}
	if a := t.freshPending(); a != nil && a.Name == ActionComplete {
		net := tradeNet(a)
		if net == 0 || (net > 0) == (delta > 0) {
			return confirmed(delta, t.goldEntry(delta, t.sourceFor(a, tradeSource)))
		}
	}
	return awaiting(delta)
}

func (t *tradeTracker) Accept(r Result) {
	if r.Status == Confirmed {
		t.clearPending()
	}
}

func (t *tradeTracker) Await(c Cycle, r Result) {
	t.hold(r.Delta, c)
}

func (t *tradeTracker) goldEntry(delta int64, source string) Entry {
	kind := ledger.KindTradeGoldIn
	if delta < 0 {
		kind = ledger.KindTradeGoldOut
	}
	return Entry{Kind: kind, Value: delta, Source: source}
}

func itemEntries(kind ledger.Kind, slots []inventory.Slot, source string) []Entry {
	var out []Entry
	for _, s := range slots {
		if s.ItemID == 0 || s.Quantity <= 0 {
			continue
		}
		out = append(out, Entry{Kind: kind, ItemID: s.ItemID, Link: s.Link, Quantity: s.Quantity, Source: source})
	}
	return out
}
