package engine

import "goldledger/internal/inventory"

// ItemMetadata is what the host knows about an item once it is cached.
type ItemMetadata struct {
	Name        string `json:"name"`
	VendorPrice int64  `json:"vendor_price"`
	ClassID     int    `json:"class_id"`
	SubclassID  int    `json:"subclass_id"`
}

// BalanceSource is the authoritative, synchronous currency query.
type BalanceSource interface {
	Balance() int64
}

// Host is everything the engine reads from the game client. All calls are
// synchronous. ItemMetadata returns false while the client has not cached the
// item yet; callers retry instead of treating it as absent.
//
// BalanceReported and ScopeReported say whether the client has reported the
// purse or a container since the current character logged in. Until then the
// zero value Balance or Inventory returns is not a reading.
type Host interface {
	BalanceSource
	inventory.Source
	ItemMetadata(id inventory.ItemID) (ItemMetadata, bool)
	BalanceReported() bool
	ScopeReported(scope inventory.Scope) bool
}
