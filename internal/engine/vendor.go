package engine

import (
	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

const vendorSource = "Vendor"

// vendorTracker attributes merchant sales and purchases. Explicit buy and
// buyback actions are confirmed; everything else is inferred from the bag
// diff against the open-time snapshot.
type vendorTracker struct {
	*venueContext
	wait *RetryHandle
}

func newVendorTracker(d *deps) *vendorTracker {
	v := &vendorTracker{
		venueContext: newVenueContext(d, "merchant", []Venue{VenueMerchant}, inventory.ScopeBags),
	}
	v.onClose = func() { v.wait = nil }
	return v
}

func vendorKind(name ActionName) (ledger.Kind, bool) {
	switch name {
	case ActionBuy:
		return ledger.KindPurchase, true
	case ActionBuyback:
		return ledger.KindBuyback, true
	}
	return "", false
}

func (v *vendorTracker) OnAction(a Action) {
	kind, ok := vendorKind(a.Name)
	if !ok {
		return
	}
	if h := v.takeHeld(ledger.SignExpense); h != nil {
		v.stopWait()
		if v.claimAndEmit(h.cycle, Confirmed, []Entry{v.actionEntry(kind, h.delta, &a)}) {
			v.rebaseAfterPurchase(a)
		}
		return
	}
	v.setPending(a)
}

func (v *vendorTracker) EvaluateBalance() Result {
	delta := v.balance.OnBalanceChanged()
	if delta == 0 {
		return unattributed(0)
	}
	if a := v.freshPending(); a != nil && delta < 0 {
		if kind, ok := vendorKind(a.Name); ok {
			return confirmed(delta, v.actionEntry(kind, delta, a))
		}
	}
	current := v.snapshot()
	relevant := v.relevant(delta, current)
	if len(relevant) == 0 {
		return awaiting(delta)
	}
	entries, ok := v.attribute(delta, relevant, false)
	if !ok {
		return awaiting(delta)
	}
	return inferred(delta, entries...)
}

func (v *vendorTracker) Accept(r Result) {
	if r.Status == Confirmed && v.pending != nil {
		a := v.pending.action
		v.clearPending()
		v.rebaseAfterPurchase(a)
		return
	}
	v.baseline = v.snapshot()
}

// Await keeps polling the bags for the item movement that explains delta,
// and degrades to an even split once metadata is still missing on the last
// attempt.
func (v *vendorTracker) Await(c Cycle, r Result) {
	v.stopWait()
	v.hold(r.Delta, c)
	held := v.held
	v.wait = v.retry(func(attempt int, last bool) bool {
		if v.held != held {
			return true
		}
		current := v.snapshot()
		relevant := v.relevant(held.delta, current)
		if len(relevant) == 0 {
			if last {
				v.held = nil
				v.log.Debug().Int64("delta", held.delta).Msg("no bag movement for balance change")
			}
			return false
		}
		entries, ok := v.attribute(held.delta, relevant, last)
		if !ok {
			return false
		}
		v.held = nil
		if v.claimAndEmit(held.cycle, Inferred, entries) {
			v.baseline = current
		}
		return true
	})
}

// relevant picks the bag changes that can explain delta: items leaving for a
// sale, items arriving for a purchase.
func (v *vendorTracker) relevant(delta int64, current inventory.Map) []inventory.Change {
	changes := inventory.Diff(v.baseline, current)
	if delta > 0 {
		return inventory.Filter(changes, inventory.Removed)
	}
	return inventory.Filter(changes, inventory.Added)
}

// attribute splits delta over the changes. With force unset it reports false
// while any item's metadata is still pending.
func (v *vendorTracker) attribute(delta int64, changes []inventory.Change, force bool) ([]Entry, bool) {
	meta := map[inventory.ItemID]ItemMetadata{}
	if len(changes) > 1 {
		for _, c := range changes {
			m, ok := v.host.ItemMetadata(c.ItemID)
			if !ok {
				if !force {
					return nil, false
				}
				continue
			}
			meta[c.ItemID] = m
		}
	}
	value := func(id inventory.ItemID) (int64, bool) {
		m, ok := meta[id]
		if !ok || m.VendorPrice <= 0 {
			return 0, false
		}
		return m.VendorPrice, true
	}
	kind := ledger.KindPurchase
	if delta > 0 {
		kind = ledger.KindSale
	}
	shares, low := Distribute(delta, changes, value, v.cfg.TolerancePct)
	entries := make([]Entry, 0, len(shares))
	for _, s := range shares {
		entries = append(entries, Entry{
			Kind:          kind,
			Value:         s.Value,
			ItemID:        s.Change.ItemID,
			Link:          s.Change.Link,
			Quantity:      s.Change.Quantity,
			Source:        v.sourceFor(nil, vendorSource),
			LowConfidence: low,
		})
	}
	return entries, true
}

func (v *vendorTracker) actionEntry(kind ledger.Kind, delta int64, a *Action) Entry {
	return Entry{
		Kind:     kind,
		Value:    delta,
		ItemID:   a.ItemID,
		Link:     a.Link,
		Quantity: a.Quantity,
		Source:   v.sourceFor(a, vendorSource),
	}
}

// rebaseAfterPurchase moves the baseline past a confirmed purchase. When the
// bags have not caught up yet the expected addition is applied by hand so the
// item does not later look like an unexplained arrival.
func (v *vendorTracker) rebaseAfterPurchase(a Action) {
	before := v.baseline
	current := v.snapshot()
	v.baseline = current
	if a.ItemID == 0 || a.Quantity <= 0 || current.Quantity(a.ItemID) > before.Quantity(a.ItemID) {
		return
	}
	next, err := inventory.Apply(current, []inventory.Change{{
		ItemID:    a.ItemID,
		Link:      a.Link,
		Quantity:  a.Quantity,
		Direction: inventory.Added,
	}})
	if err != nil {
		v.invariant("vendor rebase: %v", err)
		return
	}
	v.baseline = next
}

func (v *vendorTracker) stopWait() {
	if v.wait != nil {
		v.wait.Stop()
		delete(v.retries, v.wait)
		v.wait = nil
	}
}
