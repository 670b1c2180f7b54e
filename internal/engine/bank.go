package engine

import (
	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

type bankKinds struct {
	itemIn, itemOut ledger.Kind
}

// bankTracker logs items moved into and out of a bank by diffing its scopes
// against the open-time snapshot. Gold deposits and withdrawals follow the
// action rules, falling back to the sign of the change.
type bankTracker struct {
	*actionVenue
	kinds bankKinds
}

func (b *bankTracker) OnInventoryChanged(scope inventory.Scope) {
	if !b.watches(scope) {
		return
	}
	current := b.snapshot()
	changes := inventory.Diff(b.baseline, current)
	b.baseline = current
	if len(changes) == 0 {
		return
	}
	source := b.sourceFor(nil, b.def.source)
	entries := make([]Entry, 0, len(changes))
	for _, c := range changes {
		if c.Quantity <= 0 {
			b.invariant("bank diff produced quantity %d for item %d", c.Quantity, c.ItemID)
			continue
		}
		kind := b.kinds.itemIn
		if c.Direction == inventory.Removed {
			kind = b.kinds.itemOut
		}
		entries = append(entries, Entry{Kind: kind, ItemID: c.ItemID, Link: c.Link, Quantity: c.Quantity, Source: source})
	}
	b.emit(Inferred, entries)
}

func (b *bankTracker) watches(scope inventory.Scope) bool {
	for _, s := range b.scopes {
		if s == scope {
			return true
		}
	}
	return false
}

func newPersonalBankTracker(d *deps) *bankTracker {
	return &bankTracker{
		actionVenue: newActionVenue(d, actionVenueDef{
			name:   "bank",
			venues: []Venue{VenueBank},
			scopes: []inventory.Scope{inventory.ScopeBank, inventory.ScopeReagentBank},
			rules:  map[ActionName]ledger.Kind{ActionBuySlot: ledger.KindBankSlotPurchase},
			source: "Bank",
		}),
		kinds: bankKinds{itemIn: ledger.KindBankItemIn, itemOut: ledger.KindBankItemOut},
	}
}

func newGuildBankTracker(d *deps) *bankTracker {
	return &bankTracker{
		actionVenue: newActionVenue(d, actionVenueDef{
			name:   "guild_bank",
			venues: []Venue{VenueGuildBank},
			scopes: []inventory.Scope{inventory.ScopeGuildBank},
			rules: map[ActionName]ledger.Kind{
				ActionDeposit:  ledger.KindGuildbankGoldIn,
				ActionWithdraw: ledger.KindGuildbankGoldOut,
			},
			fallback: []ledger.Kind{ledger.KindGuildbankGoldIn, ledger.KindGuildbankGoldOut},
			source:   "Guild Bank",
		}),
		kinds: bankKinds{itemIn: ledger.KindGuildbankItemIn, itemOut: ledger.KindGuildbankItemOut},
	}
}

func newWarbandBankTracker(d *deps) *bankTracker {
	return &bankTracker{
		actionVenue: newActionVenue(d, actionVenueDef{
			name:   "warband_bank",
			venues: []Venue{VenueWarbandBank},
			scopes: []inventory.Scope{inventory.ScopeWarbandBank},
			rules: map[ActionName]ledger.Kind{
				ActionDeposit:  ledger.KindWarbankGoldIn,
				ActionWithdraw: ledger.KindWarbankGoldOut,
			},
			fallback: []ledger.Kind{ledger.KindWarbankGoldIn, ledger.KindWarbankGoldOut},
			source:   "Warband Bank",
		}),
		kinds: bankKinds{itemIn: ledger.KindWarbankItemIn, itemOut: ledger.KindWarbankItemOut},
	}
}
