package engine

import (
	"time"

	"goldledger/internal/inventory"
	"goldledger/internal/ledger"
)

// Status is the classification priority of a tracker result.
type Status int

const (
	Unattributed Status = iota
	Inferred
	Confirmed
)

func (s Status) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case Inferred:
		return "inferred"
	default:
		return "unattributed"
	}
}

// Confidence maps a status to the confidence recorded on its entries.
func (s Status) Confidence() ledger.Confidence {
	switch s {
	case Confirmed:
		return ledger.ConfidenceConfirmed
	case Inferred:
		return ledger.ConfidenceInferred
	default:
		return ledger.ConfidenceGeneric
	}
}

// Entry is a transaction a tracker wants emitted. The dispatcher fills in the
// character, timestamp and confidence.
type Entry struct {
	Kind          ledger.Kind
	Value         int64
	ItemID        inventory.ItemID
	Link          string
	Quantity      int
	Source        string
	LowConfidence bool
	// At overrides the emission time, used for entries describing an
	// earlier observation.
	At time.Time
}

// Result is a tracker's verdict on one balance change.
type Result struct {
	Status  Status
	Entries []Entry
	// Delta is the balance change the tracker observed.
	Delta int64
	// Await asks to be handed the arbitration cycle when nobody else
	// attributes the change, so the tracker can still claim it later.
	Await bool
}

func confirmed(delta int64, entries ...Entry) Result {
	return Result{Status: Confirmed, Delta: delta, Entries: entries}
}

func inferred(delta int64, entries ...Entry) Result {
	return Result{Status: Inferred, Delta: delta, Entries: entries}
}

func unattributed(delta int64) Result {
	return Result{Status: Unattributed, Delta: delta}
}

func awaiting(delta int64) Result {
	return Result{Status: Unattributed, Delta: delta, Await: true}
}

func sumValues(entries []Entry) int64 {
	var s int64
	for _, e := range entries {
		s += e.Value
	}
	return s
}

// signMatches reports whether a non-zero delta moves the purse the way sign
// says. Neutral never matches a balance change.
func signMatches(sign ledger.Sign, delta int64) bool {
	switch sign {
	case ledger.SignIncome:
		return delta > 0
	case ledger.SignExpense:
		return delta < 0
	}
	return false
}
