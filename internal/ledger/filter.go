package ledger

import "time"

// Filter selects transactions. Zero fields match everything; From and To are
// inclusive.
type Filter struct {
	From      *time.Time
	To        *time.Time
	Character string
	Kinds     []Kind
	Limit     int
	Offset    int
}

func (f Filter) Matches(t Transaction) bool {
	if f.From != nil && t.Timestamp.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Timestamp.After(*f.To) {
		return false
	}
	if f.Character != "" && t.CharacterKey != f.Character {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if k == t.Kind {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Page applies Limit/Offset to an already filtered slice.
func (f Filter) Page(txs []Transaction) []Transaction {
	if f.Offset > 0 {
		if f.Offset >= len(txs) {
			return []Transaction{}
		}
		txs = txs[f.Offset:]
	}
	if f.Limit > 0 && len(txs) > f.Limit {
		txs = txs[:f.Limit]
	}
	return txs
}

// Summary aggregates a set of transactions. TotalExpense is a magnitude.
type Summary struct {
	TotalIncome  int64 `json:"total_income"`
	TotalExpense int64 `json:"total_expense"`
	NetGold      int64 `json:"net_gold"`
	Count        int   `json:"count"`
}

func (s *Summary) Add(t Transaction) {
	s.TotalIncome += t.Income()
	s.TotalExpense += t.Expense()
	s.NetGold = s.TotalIncome - s.TotalExpense
	s.Count++
}

func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		s.Add(t)
	}
	return s
}
