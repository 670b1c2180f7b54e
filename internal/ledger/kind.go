package ledger

import "sort"

// Kind is the closed set of ledger entry types.
type Kind string

const (
	KindSale              Kind = "sale"
	KindPurchase          Kind = "purchase"
	KindBuyback           Kind = "buyback"
	KindAuctionSold       Kind = "auction-sold"
	KindAuctionBought     Kind = "auction-bought"
	KindAuctionBid        Kind = "auction-bid"
	KindAuctionOutbid     Kind = "auction-outbid-refund"
	KindAuctionCancelFee  Kind = "auction-cancel-fee"
	KindDepositFee        Kind = "deposit-fee"
	KindDepositRefund     Kind = "deposit-refund"
	KindBlackMarketBid    Kind = "black-market-bid"
	KindBlackMarketRefund Kind = "black-market-refund"
	KindMailItemIn        Kind = "mail-item-in"
	KindMailItemOut       Kind = "mail-item-out"
	KindMailGoldIn        Kind = "mail-gold-in"
	KindMailGoldOut       Kind = "mail-gold-out"
	KindMailPostage       Kind = "mail-postage"
	KindMailCODPayment    Kind = "mail-cod-payment"
	KindTradeGoldIn       Kind = "trade-gold-in"
	KindTradeGoldOut      Kind = "trade-gold-out"
	KindTradeItemIn       Kind = "trade-item-in"
	KindTradeItemOut      Kind = "trade-item-out"
	KindBankItemIn        Kind = "bank-item-in"
	KindBankItemOut       Kind = "bank-item-out"
	KindBankSlotPurchase  Kind = "bank-slot-purchase"
	KindWarbankItemIn     Kind = "warbank-item-in"
	KindWarbankItemOut    Kind = "warbank-item-out"
	KindWarbankGoldIn     Kind = "warbank-gold-in"
	KindWarbankGoldOut    Kind = "warbank-gold-out"
	KindGuildbankGoldIn   Kind = "guildbank-gold-in"
	KindGuildbankGoldOut  Kind = "guildbank-gold-out"
	KindGuildbankItemIn   Kind = "guildbank-item-in"
	KindGuildbankItemOut  Kind = "guildbank-item-out"
	KindRepair            Kind = "repair"
	KindRepairGuild       Kind = "repair-guild"
	KindQuestGold         Kind = "quest-gold"
	KindLootGold          Kind = "loot-gold"
	KindFlightCost        Kind = "flight-cost"
	KindTransmogCost      Kind = "transmog-cost"
	KindBarberCost        Kind = "barber-cost"
	KindUnclaimedIncome   Kind = "unclaimed-income"
	KindUnclaimedExpense  Kind = "unclaimed-expense"
)

// Sign is the direction a kind moves the purse.
type Sign int

const (
	// SignNeutral entries move items only; their value is always zero.
	SignNeutral Sign = iota
	SignIncome
	SignExpense
)

func (s Sign) String() string {
	switch s {
	case SignIncome:
		return "income"
	case SignExpense:
		return "expense"
	default:
		return "neutral"
	}
}

// Allows reports whether value has the direction implied by s.
func (s Sign) Allows(value int64) bool {
	switch s {
	case SignIncome:
		return value >= 0
	case SignExpense:
		return value <= 0
	default:
		return value == 0
	}
}

type KindInfo struct {
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
	Sign  Sign   `json:"-"`
	// Generic marks the fallback kinds the arbiter emits when no venue
	// claimed a balance change.
	Generic bool `json:"generic"`
}

var kindInfo = map[Kind]KindInfo{
	KindSale:              {Label: "Sold to Vendor", Sign: SignIncome},
	KindPurchase:          {Label: "Bought from Vendor", Sign: SignExpense},
	KindBuyback:           {Label: "Vendor Buyback", Sign: SignExpense},
	KindAuctionSold:       {Label: "Auction Sold", Sign: SignIncome},
	KindAuctionBought:     {Label: "Auction Bought", Sign: SignExpense},
	KindAuctionBid:        {Label: "Auction Bid", Sign: SignExpense},
	KindAuctionOutbid:     {Label: "Auction Outbid Refund", Sign: SignIncome},
	KindAuctionCancelFee:  {Label: "Auction Cancel Fee", Sign: SignExpense},
	KindDepositFee:        {Label: "Auction Deposit", Sign: SignExpense},
	KindDepositRefund:     {Label: "Auction Deposit Refund", Sign: SignIncome},
	KindBlackMarketBid:    {Label: "Black Market Bid", Sign: SignExpense},
	KindBlackMarketRefund: {Label: "Black Market Refund", Sign: SignIncome},
	KindMailItemIn:        {Label: "Item Received by Mail", Sign: SignNeutral},
	KindMailItemOut:       {Label: "Item Sent by Mail", Sign: SignNeutral},
	KindMailGoldIn:        {Label: "Gold Received by Mail", Sign: SignIncome},
	KindMailGoldOut:       {Label: "Gold Sent by Mail", Sign: SignExpense},
	KindMailPostage:       {Label: "Postage", Sign: SignExpense},
	KindMailCODPayment:    {Label: "COD Payment", Sign: SignExpense},
	KindTradeGoldIn:       {Label: "Gold Received in Trade", Sign: SignIncome},
	KindTradeGoldOut:      {Label: "Gold Given in Trade", Sign: SignExpense},
	KindTradeItemIn:       {Label: "Item Received in Trade", Sign: SignNeutral},
	KindTradeItemOut:      {Label: "Item Given in Trade", Sign: SignNeutral},
	KindBankItemIn:        {Label: "Deposited to Bank", Sign: SignNeutral},
	KindBankItemOut:       {Label: "Withdrawn from Bank", Sign: SignNeutral},
	KindBankSlotPurchase:  {Label: "Bank Slot Purchase", Sign: SignExpense},
	KindWarbankItemIn:     {Label: "Deposited to Warband Bank", Sign: SignNeutral},
	KindWarbankItemOut:    {Label: "Withdrawn from Warband Bank", Sign: SignNeutral},
	KindWarbankGoldIn:     {Label: "Gold Deposited to Warband Bank", Sign: SignExpense},
	KindWarbankGoldOut:    {Label: "Gold Withdrawn from Warband Bank", Sign: SignIncome},
	KindGuildbankGoldIn:   {Label: "Gold Deposited to Guild Bank", Sign: SignExpense},
	KindGuildbankGoldOut:  {Label: "Gold Withdrawn from Guild Bank", Sign: SignIncome},
	KindGuildbankItemIn:   {Label: "Deposited to Guild Bank", Sign: SignNeutral},
	KindGuildbankItemOut:  {Label: "Withdrawn from Guild Bank", Sign: SignNeutral},
	KindRepair:            {Label: "Repairs", Sign: SignExpense},
	KindRepairGuild:       {Label: "Repairs (Guild Funds)", Sign: SignNeutral},
	KindQuestGold:         {Label: "Quest Reward", Sign: SignIncome},
	KindLootGold:          {Label: "Looted Gold", Sign: SignIncome},
	KindFlightCost:        {Label: "Flight Path", Sign: SignExpense},
	KindTransmogCost:      {Label: "Transmogrification", Sign: SignExpense},
	KindBarberCost:        {Label: "Barber Shop", Sign: SignExpense},
	KindUnclaimedIncome:   {Label: "Other Income", Sign: SignIncome, Generic: true},
	KindUnclaimedExpense:  {Label: "Other Expense", Sign: SignExpense, Generic: true},
}

func init() {
	for k, info := range kindInfo {
		info.Kind = k
		kindInfo[k] = info
	}
}

func (k Kind) Valid() bool {
	_, ok := kindInfo[k]
	return ok
}

func (k Kind) Info() KindInfo {
	return kindInfo[k]
}

func (k Kind) Label() string {
	if info, ok := kindInfo[k]; ok {
		return info.Label
	}
	return string(k)
}

func (k Kind) Sign() Sign {
	return kindInfo[k].Sign
}

// Kinds returns every kind sorted by name.
func Kinds() []KindInfo {
	out := make([]KindInfo, 0, len(kindInfo))
	for _, info := range kindInfo {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// UnclaimedKind picks the generic kind for a balance delta.
func UnclaimedKind(delta int64) Kind {
	if delta < 0 {
		return KindUnclaimedExpense
	}
	return KindUnclaimedIncome
}
