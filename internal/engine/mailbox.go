package engine

import (
	"time"

	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

const mailSource = "Mail"

type itemTake struct {
	action Action
	at     time.Time
}

type arrival struct {
	change inventory.Change
	at     time.Time
}

// mailboxTracker attributes sent and received mail. Gold moves are confirmed
// by the send, take_money and pay_cod actions; attachments taken out are
// confirmed against the next bag diff.
type mailboxTracker struct {
	*venueContext
	takes    []itemTake
	arrivals []arrival
}

func newMailboxTracker(d *deps) *mailboxTracker {
	m := &mailboxTracker{
		venueContext: newVenueContext(d, "mailbox", []Venue{VenueMailbox}, inventory.ScopeBags),
	}
	m.onClose = func() {
		m.takes = nil
		m.arrivals = nil
	}
	return m
}

// takeMoneyKind maps the kind of mail money was taken from.
func takeMoneyKind(detail string) ledger.Kind {
	switch detail {
	case MailAuctionSold:
		return ledger.KindAuctionSold
	case MailAuctionOutbid:
		return ledger.KindAuctionOutbid
	case MailAuctionCancelled, MailAuctionExpired:
		return ledger.KindDepositRefund
	case MailBlackMarketOutbid:
		return ledger.KindBlackMarketRefund
	default:
		return ledger.KindMailGoldIn
	}
}

func (m *mailboxTracker) OnAction(a Action) {
	switch a.Name {
	case ActionSend, ActionPayCOD:
		m.resolveOrPend(a, ledger.SignExpense, func(delta int64) []Entry { return m.entries(&a, delta) })
	case ActionTakeMoney:
		m.resolveOrPend(a, ledger.SignIncome, func(delta int64) []Entry { return m.entries(&a, delta) })
	case ActionTakeItem:
		m.takeItem(a)
	}
}

func (m *mailboxTracker) EvaluateBalance() Result {
	delta := m.balance.OnBalanceChanged()
	if delta == 0 {
		return unattributed(0)
	}
	if a := m.freshPending(); a != nil && m.explains(a, delta) {
		return confirmed(delta, m.entries(a, delta)...)
	}
	return awaiting(delta)
}

func (m *mailboxTracker) Accept(r Result) {
	if r.Status == Confirmed {
		m.clearPending()
	}
}

func (m *mailboxTracker) Await(c Cycle, r Result) {
	m.hold(r.Delta, c)
}

func (m *mailboxTracker) explains(a *Action, delta int64) bool {
	switch a.Name {
	case ActionSend, ActionPayCOD:
		return delta < 0
	case ActionTakeMoney:
		return delta > 0
	}
	return false
}

func (m *mailboxTracker) entries(a *Action, delta int64) []Entry {
	source := m.sourceFor(a, mailSource)
	switch a.Name {
	case ActionTakeMoney:
		return []Entry{{Kind: takeMoneyKind(a.Detail), Value: delta, Source: source}}
	case ActionPayCOD:
		return []Entry{{Kind: ledger.KindMailCODPayment, Value: delta, ItemID: a.ItemID, Link: a.Link, Quantity: a.Quantity, Source: source}}
	}
	return m.sendEntries(a, delta, source)
}

// sendEntries splits an outgoing mail into the money sent and the postage
// that makes up the rest of the observed delta.
func (m *mailboxTracker) sendEntries(a *Action, delta int64, source string) []Entry {
	var out []Entry
	postage := delta
	if a.Amount > 0 {
		sent := a.Amount
		if sent > -delta {
			sent = -delta
		}
		out = append(out, Entry{Kind: ledger.KindMailGoldOut, Value: -sent, Source: source})
		postage = delta + sent
	}
	if postage != 0 || a.Amount <= 0 {
		out = append(out, Entry{Kind: ledger.KindMailPostage, Value: postage, Source: source})
	}
	for _, it := range a.Items {
		out = append(out, Entry{Kind: ledger.KindMailItemOut, ItemID: it.ItemID, Link: it.Link, Quantity: it.Quantity, Source: source})
	}
	return out
}

// takeItem confirms an attachment against bag arrivals already seen, or waits
// for the next inventory change.
func (m *mailboxTracker) takeItem(a Action) {
	m.expireArrivals()
	for i, arr := range m.arrivals {
		if arr.change.ItemID != a.ItemID {
			continue
		}
		m.arrivals = append(m.arrivals[:i], m.arrivals[i+1:]...)
		m.emitItemIn(a, arr.change)
		return
	}
	m.takes = append(m.takes, itemTake{action: a, at: m.now()})
}

func (m *mailboxTracker) OnInventoryChanged(scope inventory.Scope) {
	if scope != inventory.ScopeBags {
		return
	}
	current := m.snapshot()
	added := inventory.Filter(inventory.Diff(m.baseline, current), inventory.Added)
	m.baseline = current
	m.expireTakes()
	m.expireArrivals()
	for _, c := range added {
		if i := m.findTake(c.ItemID); i >= 0 {
			t := m.takes[i]
			m.takes = append(m.takes[:i], m.takes[i+1:]...)
			m.emitItemIn(t.action, c)
			continue
		}
		m.arrivals = append(m.arrivals, arrival{change: c, at: m.now()})
	}
}

func (m *mailboxTracker) emitItemIn(a Action, c inventory.Change) {
	link := c.Link
	if link == "" {
		link = a.Link
	}
	m.emit(Confirmed, []Entry{{
		Kind:     ledger.KindMailItemIn,
		ItemID:   c.ItemID,
		Link:     link,
		Quantity: c.Quantity,
		Source:   m.sourceFor(&a, mailSource),
	}})
}

func (m *mailboxTracker) findTake(id inventory.ItemID) int {
	for i, t := range m.takes {
		if t.action.ItemID == id {
			return i
		}
	}
	return -1
}

func (m *mailboxTracker) expireTakes() {
	now := m.now()
	live := m.takes[:0]
	for _, t := range m.takes {
		if now.Sub(t.at) <= m.cfg.PendingStale {
			live = append(live, t)
		}
	}
	m.takes = live
}

func (m *mailboxTracker) expireArrivals() {
	now := m.now()
	live := m.arrivals[:0]
	for _, a := range m.arrivals {
		if now.Sub(a.at) <= m.cfg.MatchWindow {
			live = append(live, a)
		}
	}
	m.arrivals = live
}
