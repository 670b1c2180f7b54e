package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeHost struct {
	balance int64
	// balanceUnknown simulates a login before the first money event.
	balanceUnknown bool
	// A scope counts as reported once it has an entry in inv.
	inv  map[inventory.Scope][]inventory.Slot
	meta map[inventory.ItemID]ItemMetadata
	// misses counts lookups that still report the item as uncached.
	misses map[inventory.ItemID]int
}

func newFakeHost(balance int64) *fakeHost {
	return &fakeHost{
		balance: balance,
		inv:     map[inventory.Scope][]inventory.Slot{inventory.ScopeBags: nil},
		meta:    map[inventory.ItemID]ItemMetadata{},
		misses:  map[inventory.ItemID]int{},
	}
}

func (h *fakeHost) Balance() int64 { return h.balance }

func (h *fakeHost) BalanceReported() bool { return !h.balanceUnknown }

func (h *fakeHost) ScopeReported(scope inventory.Scope) bool {
	_, ok := h.inv[scope]
	return ok
}

// login forgets everything the client reported, as a character switch does.
func (h *fakeHost) login() {
	h.balanceUnknown = true
	h.inv = map[inventory.Scope][]inventory.Slot{}
}

func (h *fakeHost) Inventory(scope inventory.Scope) []inventory.Slot {
	return append([]inventory.Slot(nil), h.inv[scope]...)
}

func (h *fakeHost) ItemMetadata(id inventory.ItemID) (ItemMetadata, bool) {
	if h.misses[id] > 0 {
		h.misses[id]--
		return ItemMetadata{}, false
	}
	m, ok := h.meta[id]
	return m, ok
}

type harness struct {
	t      *testing.T
	host   *fakeHost
	sched  *ManualScheduler
	ledger *ledger.Ledger
	eng    *Engine
	start  int64
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.CharacterKey = "Tester-Realm"
	cfg.StrictInvariants = true
	return cfg
}

func newHarness(t *testing.T, balance int64) *harness {
	t.Helper()
	return newHarnessWith(t, balance, testConfig())
}

func newHarnessWith(t *testing.T, balance int64, cfg Config) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		host:   newFakeHost(balance),
		sched:  NewManualScheduler(epoch),
		ledger: ledger.New(ledger.NewMemoryStore()),
		start:  balance,
	}
	h.eng = New(h.host, h.sched, h.ledger, cfg)
	return h
}

func (h *harness) open(v Venue) {
	h.eng.Dispatch(VenueOpened{Venue: v})
}

func (h *harness) close(v Venue) {
	h.eng.Dispatch(VenueClosed{Venue: v})
}

func (h *harness) setBalance(b int64) {
	h.host.balance = b
	h.host.balanceUnknown = false
	h.eng.Dispatch(BalanceChanged{})
}

func (h *harness) action(a Action) {
	h.eng.Dispatch(ActionSignal{Action: a})
}

func (h *harness) setInventory(scope inventory.Scope, slots ...inventory.Slot) {
	h.host.inv[scope] = slots
	h.eng.Dispatch(InventoryChanged{Scope: scope})
}

func (h *harness) advance(d time.Duration) {
	h.sched.Advance(d)
}

func (h *harness) txs() []ledger.Transaction {
	h.t.Helper()
	txs, err := h.ledger.Query(context.Background(), ledger.Filter{})
	require.NoError(h.t, err)
	return txs
}

// settle runs every outstanding timer.
func (h *harness) settle() {
	h.advance(time.Minute)
}

func (h *harness) requireConserved() {
	h.t.Helper()
	var sum int64
	for _, tx := range h.txs() {
		sum += tx.Value
	}
	require.Equal(h.t, h.host.balance-h.start, sum, "ledger sum vs balance change")
}

func slot(id inventory.ItemID, qty int) inventory.Slot {
	return inventory.Slot{ItemID: id, Link: fmt.Sprintf("item:%d", id), Quantity: qty}
}
