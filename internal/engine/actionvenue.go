package engine

import (
	"time"

	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

// actionVenueDef describes a venue whose gold movements are explained by a
// single action each.
type actionVenueDef struct {
	name   string
	venues []Venue
	scopes []inventory.Scope
	rules  map[ActionName]ledger.Kind
	// fallback kinds are inferred from the sign alone when no action is
	// pending. Without one the tracker waits for the action instead.
	fallback []ledger.Kind
	source   string
}

// actionVenue covers the auction house, black market, repair and the simple
// gold venues (barber, transmog, flight, quest, loot).
type actionVenue struct {
	*venueContext
	def actionVenueDef
	// The last sign-only inference; the action that explains it may still
	// trail in and must not be reused.
	inferredKind ledger.Kind
	inferredAt   time.Time
}

func newActionVenue(d *deps, def actionVenueDef) *actionVenue {
	v := &actionVenue{
		venueContext: newVenueContext(d, def.name, def.venues, def.scopes...),
		def:          def,
	}
	v.onClose = v.forgetInference
	return v
}

func (v *actionVenue) OnAction(a Action) {
	kind, ok := v.def.rules[a.Name]
	if !ok {
		return
	}
	if kind == v.inferredKind && v.now().Sub(v.inferredAt) <= v.cfg.MatchWindow {
		v.forgetInference()
		v.log.Debug().Str("action", string(a.Name)).Msg("action matches earlier inferred entry")
		return
	}
	v.resolveOrPend(a, kind.Sign(), func(delta int64) []Entry {
		return []Entry{v.entry(kind, delta, &a)}
	})
}

func (v *actionVenue) EvaluateBalance() Result {
	delta := v.balance.OnBalanceChanged()
	if delta == 0 {
		return unattributed(0)
	}
	if a := v.freshPending(); a != nil {
		if kind, ok := v.def.rules[a.Name]; ok && signMatches(kind.Sign(), delta) {
			v.crossCheck(a, delta)
			return confirmed(delta, v.entry(kind, delta, a))
		}
	}
	if kind, ok := v.fallbackFor(delta); ok {
		return inferred(delta, v.entry(kind, delta, nil))
	}
	for _, kind := range v.def.rules {
		if signMatches(kind.Sign(), delta) {
			return awaiting(delta)
		}
	}
	return unattributed(delta)
}

func (v *actionVenue) fallbackFor(delta int64) (ledger.Kind, bool) {
	for _, k := range v.def.fallback {
		if signMatches(k.Sign(), delta) {
			return k, true
		}
	}
	return "", false
}

func (v *actionVenue) forgetInference() {
	v.inferredKind = ""
	v.inferredAt = time.Time{}
}

func (v *actionVenue) Accept(r Result) {
	switch r.Status {
	case Confirmed:
		v.clearPending()
	case Inferred:
		if len(r.Entries) > 0 {
			v.inferredKind = r.Entries[0].Kind
			v.inferredAt = v.now()
		}
	}
}

func (v *actionVenue) Await(c Cycle, r Result) {
	v.hold(r.Delta, c)
}

func (v *actionVenue) entry(kind ledger.Kind, delta int64, a *Action) Entry {
	e := Entry{Kind: kind, Value: delta, Source: v.sourceFor(a, v.def.source)}
	if a != nil {
		e.ItemID = a.ItemID
		e.Link = a.Link
		e.Quantity = a.Quantity
	}
	return e
}

func (v *actionVenue) crossCheck(a *Action, delta int64) {
	if a.Amount != 0 && a.Amount != abs64(delta) {
		v.log.Debug().Int64("expected", a.Amount).Int64("observed", delta).Msg("observed delta differs from action amount")
	}
}

// repairTracker opens with either the merchant or a dedicated repair venue.
// Guild-funded repairs never touch the purse and are logged at action time.
type repairTracker struct {
	*actionVenue
}

func newRepairTracker(d *deps) *repairTracker {
	return &repairTracker{actionVenue: newActionVenue(d, actionVenueDef{
		name:   "repair",
		venues: []Venue{VenueMerchant, VenueRepair},
		rules:  map[ActionName]ledger.Kind{ActionRepair: ledger.KindRepair},
		source: "Repair",
	})}
}

func (r *repairTracker) OnAction(a Action) {
	if a.Name == ActionRepair && a.Guild {
		r.emit(Confirmed, []Entry{{Kind: ledger.KindRepairGuild, Source: "Guild Bank"}})
		return
	}
	r.actionVenue.OnAction(a)
}

func newAuctionTracker(d *deps) *actionVenue {
	return newActionVenue(d, actionVenueDef{
		name:   "auction_house",
		venues: []Venue{VenueAuctionHouse},
		rules: map[ActionName]ledger.Kind{
			ActionPost:   ledger.KindDepositFee,
			ActionBid:    ledger.KindAuctionBid,
			ActionBuyout: ledger.KindAuctionBought,
			ActionCancel: ledger.KindAuctionCancelFee,
		},
		source: "Auction House",
	})
}

func newBlackMarketTracker(d *deps) *actionVenue {
	return newActionVenue(d, actionVenueDef{
		name:     "black_market",
		venues:   []Venue{VenueBlackMarket},
		rules:    map[ActionName]ledger.Kind{ActionBid: ledger.KindBlackMarketBid},
		fallback: []ledger.Kind{ledger.KindBlackMarketBid},
		source:   "Black Market",
	})
}

func newGoldVenues(d *deps) []*actionVenue {
	return []*actionVenue{
		newActionVenue(d, actionVenueDef{
			name:     "barber",
			venues:   []Venue{VenueBarber},
			rules:    map[ActionName]ledger.Kind{ActionConfirm: ledger.KindBarberCost},
			fallback: []ledger.Kind{ledger.KindBarberCost},
			source:   "Barber",
		}),
		newActionVenue(d, actionVenueDef{
			name:     "transmog",
			venues:   []Venue{VenueTransmog},
			rules:    map[ActionName]ledger.Kind{ActionApply: ledger.KindTransmogCost},
			fallback: []ledger.Kind{ledger.KindTransmogCost},
			source:   "Transmogrifier",
		}),
		newActionVenue(d, actionVenueDef{
			name:     "flight_master",
			venues:   []Venue{VenueFlightMaster},
			rules:    map[ActionName]ledger.Kind{ActionTakeTaxi: ledger.KindFlightCost},
			fallback: []ledger.Kind{ledger.KindFlightCost},
			source:   "Flight Master",
		}),
		newActionVenue(d, actionVenueDef{
			name:     "quest",
			venues:   []Venue{VenueQuest},
			rules:    map[ActionName]ledger.Kind{ActionComplete: ledger.KindQuestGold},
			fallback: []ledger.Kind{ledger.KindQuestGold},
			source:   "Quest",
		}),
		newActionVenue(d, actionVenueDef{
			name:     "loot",
			venues:   []Venue{VenueLoot},
			fallback: []ledger.Kind{ledger.KindLootGold},
			source:   "Loot",
		}),
	}
}
