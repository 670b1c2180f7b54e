package engine

import "goldledger/internal/inventory"

// Venue identifies a modal interaction surface.
type Venue string

const (
	VenueMerchant     Venue = "merchant"
	VenueAuctionHouse Venue = "auction_house"
	VenueBlackMarket  Venue = "black_market"
	VenueMailbox      Venue = "mailbox"
	VenueTrade        Venue = "trade"
	VenueBank         Venue = "bank"
	VenueGuildBank    Venue = "guild_bank"
	VenueWarbandBank  Venue = "warband_bank"
	VenueRepair       Venue = "repair"
	VenueBarber       Venue = "barber"
	VenueTransmog     Venue = "transmog"
	VenueFlightMaster Venue = "flight_master"
	VenueQuest        Venue = "quest"
	VenueLoot         Venue = "loot"
)

var allVenues = []Venue{
	VenueMerchant, VenueAuctionHouse, VenueBlackMarket, VenueMailbox, VenueTrade,
	VenueBank, VenueGuildBank, VenueWarbandBank, VenueRepair, VenueBarber,
	VenueTransmog, VenueFlightMaster, VenueQuest, VenueLoot,
}

func Venues() []Venue {
	out := make([]Venue, len(allVenues))
	copy(out, allVenues)
	return out
}

func (v Venue) Valid() bool {
	for _, known := range allVenues {
		if v == known {
			return true
		}
	}
	return false
}

// ActionName is a venue-specific action hook reported by the host.
type ActionName string

const (
	ActionBuy       ActionName = "buy"
	ActionBuyback   ActionName = "buyback"
	ActionRepair    ActionName = "repair"
	ActionPost      ActionName = "post"
	ActionBid       ActionName = "bid"
	ActionBuyout    ActionName = "buyout"
	ActionCancel    ActionName = "cancel"
	ActionSend      ActionName = "send"
	ActionTakeMoney ActionName = "take_money"
	ActionTakeItem  ActionName = "take_item"
	ActionPayCOD    ActionName = "pay_cod"
	ActionComplete  ActionName = "complete"
	ActionBuySlot   ActionName = "buy_slot"
	ActionDeposit   ActionName = "deposit"
	ActionWithdraw  ActionName = "withdraw"
	ActionConfirm   ActionName = "confirm"
	ActionApply     ActionName = "apply"
	ActionTakeTaxi  ActionName = "take_taxi"
)

// Mail details distinguish system mail when money is taken from the mailbox.
const (
	MailAuctionSold       = "auction_sold"
	MailAuctionOutbid     = "auction_outbid"
	MailAuctionCancelled  = "auction_cancelled"
	MailAuctionExpired    = "auction_expired"
	MailBlackMarketOutbid = "black_market_outbid"
)

// Action is the payload of a venue action hook. Amount is the expected money
// (price, deposit, money sent or given); it is only a cross-check, the
// observed balance delta is what gets logged.
type Action struct {
	Venue        Venue            `json:"venue"`
	Name         ActionName       `json:"name"`
	ItemID       inventory.ItemID `json:"item_id,omitempty"`
	Link         string           `json:"link,omitempty"`
	Quantity     int              `json:"quantity,omitempty"`
	Amount       int64            `json:"amount,omitempty"`
	Extra        int64            `json:"extra,omitempty"`
	Counterparty string           `json:"counterparty,omitempty"`
	Detail       string           `json:"detail,omitempty"`
	Items        []inventory.Slot `json:"items,omitempty"`
	Received     []inventory.Slot `json:"received,omitempty"`
	Guild        bool             `json:"guild,omitempty"`
}

// Event is one host signal delivered to the dispatcher.
type Event interface {
	eventName() string
}

type VenueOpened struct {
	Venue  Venue
	Source string
}

type VenueClosed struct {
	Venue Venue
}

type BalanceChanged struct{}

type InventoryChanged struct {
	Scope inventory.Scope
}

type ActionSignal struct {
	Action Action
}

type CharacterChanged struct {
	Key string
}

func (VenueOpened) eventName() string      { return "venue_opened" }
func (VenueClosed) eventName() string      { return "venue_closed" }
func (BalanceChanged) eventName() string   { return "balance_changed" }
func (InventoryChanged) eventName() string { return "inventory_changed" }
func (ActionSignal) eventName() string     { return "action" }
func (CharacterChanged) eventName() string { return "character" }

// EventName returns the wire name of ev.
func EventName(ev Event) string {
	if ev == nil {
		return ""
	}
	return ev.eventName()
}
