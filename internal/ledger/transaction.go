package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrSignMismatch       = errors.New("value sign does not match kind")
)

// Confidence records how an entry was attributed.
type Confidence string

const (
	ConfidenceConfirmed Confidence = "confirmed"
	ConfidenceInferred  Confidence = "inferred"
	ConfidenceGeneric   Confidence = "generic"
)

// UnknownSource is the source label of arbiter fallback entries.
const UnknownSource = "Unknown"

// Transaction is one immutable ledger record. Value is in copper: positive is
// income, negative is expense, zero is an item-only movement.
type Transaction struct {
	ID            string     `json:"id"`
	Kind          Kind       `json:"kind"`
	Timestamp     time.Time  `json:"timestamp"`
	CharacterKey  string     `json:"character"`
	Value         int64      `json:"value"`
	ItemID        int64      `json:"item_id,omitempty"`
	ItemLink      string     `json:"item_link,omitempty"`
	Quantity      int        `json:"quantity,omitempty"`
	Source        string     `json:"source"`
	Confidence    Confidence `json:"confidence"`
	LowConfidence bool       `json:"low_confidence,omitempty"`
}

// Validate checks the record invariants the store relies on.
func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTransaction, t.Kind)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidTransaction)
	}
	if t.Quantity < 0 {
		return fmt.Errorf("%w: negative quantity %d", ErrInvalidTransaction, t.Quantity)
	}
	if !t.Kind.Sign().Allows(t.Value) {
		return fmt.Errorf("%w: %s value %d", ErrSignMismatch, t.Kind, t.Value)
	}
	return nil
}

func (t Transaction) Income() int64 {
	if t.Value > 0 {
		return t.Value
	}
	return 0
}

func (t Transaction) Expense() int64 {
	if t.Value < 0 {
		return -t.Value
	}
	return 0
}

func (t Transaction) Label() string {
	return t.Kind.Label()
}

// IsGeneric reports whether the entry came from the unclaimed fallback.
func (t Transaction) IsGeneric() bool {
	return t.Kind.Info().Generic
}
