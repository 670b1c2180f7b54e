package host

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"goldledger/internal/catalog"
	"goldledger/internal/engine"
	"goldledger/internal/inventory"
)

var envelopesApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "goldledger_host_envelopes_total",
	Help: "Host envelopes by type and outcome.",
}, []string{"type", "outcome"})

// RecordRejected counts an envelope that failed to decode.
func RecordRejected() {
	envelopesApplied.WithLabelValues("unknown", "rejected").Inc()
}

// Mirror is the engine's view of the client. The client pushes balance,
// inventory and item metadata; the engine reads them back synchronously.
// Balance and inventory belong to the logged-in character and are dropped
// when another one logs in; item metadata is shared.
type Mirror struct {
	mu              sync.RWMutex
	character       string
	balance         int64
	balanceReported bool
	inv             map[inventory.Scope][]inventory.Slot
	meta            map[inventory.ItemID]engine.ItemMetadata
	catalog         *catalog.Catalog
}

func NewMirror(cat *catalog.Catalog) *Mirror {
	return &Mirror{
		inv:     map[inventory.Scope][]inventory.Slot{},
		meta:    map[inventory.ItemID]engine.ItemMetadata{},
		catalog: cat,
	}
}

func (m *Mirror) Balance() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balance
}

func (m *Mirror) BalanceReported() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.balanceReported
}

// ScopeReported is true once the client sent the scope's contents, even an
// empty list.
func (m *Mirror) ScopeReported(scope inventory.Scope) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.inv[scope]
	return ok
}

func (m *Mirror) Character() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.character
}

// SetCharacter records who is logged in. Switching from one character to
// another forgets the previous purse and containers.
func (m *Mirror) SetCharacter(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.character != "" && m.character != key {
		m.balance = 0
		m.balanceReported = false
		m.inv = map[inventory.Scope][]inventory.Slot{}
	}
	m.character = key
}

func (m *Mirror) Inventory(scope inventory.Scope) []inventory.Slot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]inventory.Slot(nil), m.inv[scope]...)
}

// ItemMetadata prefers what the client reported and falls back to the static
// catalog. Unknown items report false so the engine keeps retrying.
func (m *Mirror) ItemMetadata(id inventory.ItemID) (engine.ItemMetadata, bool) {
	m.mu.RLock()
	md, ok := m.meta[id]
	m.mu.RUnlock()
	if ok {
		return md, true
	}
	if it, ok := m.catalog.Lookup(id); ok {
		return engine.ItemMetadata{
			Name:        it.Name,
			VendorPrice: it.VendorPrice,
			ClassID:     it.ClassID,
			SubclassID:  it.SubclassID,
		}, true
	}
	return engine.ItemMetadata{}, false
}

func (m *Mirror) SetBalance(b int64) {
	m.mu.Lock()
	m.balance = b
	m.balanceReported = true
	m.mu.Unlock()
}

func (m *Mirror) SetInventory(scope inventory.Scope, slots []inventory.Slot) {
	m.mu.Lock()
	m.inv[scope] = append([]inventory.Slot(nil), slots...)
	m.mu.Unlock()
}

func (m *Mirror) SetItem(info ItemInfo) {
	m.mu.Lock()
	m.meta[info.ID] = engine.ItemMetadata{
		Name:        info.Name,
		VendorPrice: info.VendorPrice,
		ClassID:     info.ClassID,
		SubclassID:  info.SubclassID,
	}
	m.mu.Unlock()
}

// Apply folds env into the mirrored state and returns the engine event it
// implies. State-only envelopes (item_info) return a nil event. Call it on
// the engine loop so state and event stay ordered.
func (m *Mirror) Apply(env Envelope) (engine.Event, error) {
	ev, err := m.apply(env)
	outcome := "applied"
	if err != nil {
		outcome = "rejected"
		log.Debug().Err(err).Str("type", env.Type).Msg("host envelope rejected")
	}
	envelopesApplied.WithLabelValues(env.Type, outcome).Inc()
	return ev, err
}

func (m *Mirror) apply(env Envelope) (engine.Event, error) {
	switch env.Type {
	case TypeVenueOpened:
		if !env.Venue.Valid() {
			return nil, fmt.Errorf("%w: unknown venue %q", ErrInvalidEnvelope, env.Venue)
		}
		return engine.VenueOpened{Venue: env.Venue, Source: env.Source}, nil
	case TypeVenueClosed:
		if !env.Venue.Valid() {
			return nil, fmt.Errorf("%w: unknown venue %q", ErrInvalidEnvelope, env.Venue)
		}
		return engine.VenueClosed{Venue: env.Venue}, nil
	case TypeBalanceChanged:
		if env.Balance == nil {
			return nil, fmt.Errorf("%w: balance_changed without balance", ErrInvalidEnvelope)
		}
		m.SetBalance(*env.Balance)
		return engine.BalanceChanged{}, nil
	case TypeInventoryChanged:
		if !env.Scope.Valid() {
			return nil, fmt.Errorf("%w: unknown scope %q", ErrInvalidEnvelope, env.Scope)
		}
		m.SetInventory(env.Scope, env.Slots)
		return engine.InventoryChanged{Scope: env.Scope}, nil
	case TypeAction:
		if env.Action == nil {
			return nil, fmt.Errorf("%w: action envelope without action", ErrInvalidEnvelope)
		}
		return engine.ActionSignal{Action: *env.Action}, nil
	case TypeItemInfo:
		if env.Item == nil || env.Item.ID == 0 {
			return nil, fmt.Errorf("%w: item_info without item", ErrInvalidEnvelope)
		}
		m.SetItem(*env.Item)
		return nil, nil
	case TypeCharacter:
		if env.Character == "" {
			return nil, fmt.Errorf("%w: empty character", ErrInvalidEnvelope)
		}
		m.SetCharacter(env.Character)
		return engine.CharacterChanged{Key: env.Character}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidEnvelope, env.Type)
}
