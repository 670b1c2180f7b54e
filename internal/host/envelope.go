// Package host mirrors the game client's state from pushed envelopes and
// turns them into engine events.
package host

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"goldledger/internal/engine"
	"goldledger/internal/inventory"
)

var ErrInvalidEnvelope = errors.New("invalid envelope")

// Envelope types.
const (
	TypeVenueOpened      = "venue_opened"
	TypeVenueClosed      = "venue_closed"
	TypeBalanceChanged   = "balance_changed"
	TypeInventoryChanged = "inventory_changed"
	TypeAction           = "action"
	TypeItemInfo         = "item_info"
	TypeCharacter        = "character"
)

// ItemInfo carries item metadata the client resolved after the fact.
type ItemInfo struct {
	ID          inventory.ItemID `json:"id"`
	Name        string           `json:"name,omitempty"`
	VendorPrice int64            `json:"vendor_price,omitempty"`
	ClassID     int              `json:"class_id,omitempty"`
	SubclassID  int              `json:"subclass_id,omitempty"`
}

// Envelope is one message from the client add-on.
type Envelope struct {
	Type      string           `json:"type"`
	At        *time.Time       `json:"at,omitempty"`
	Venue     engine.Venue     `json:"venue,omitempty"`
	Source    string           `json:"source,omitempty"`
	Scope     inventory.Scope  `json:"scope,omitempty"`
	Balance   *int64           `json:"balance,omitempty"`
	Slots     []inventory.Slot `json:"slots,omitempty"`
	Action    *engine.Action   `json:"action,omitempty"`
	Item      *ItemInfo        `json:"item,omitempty"`
	Character string           `json:"character,omitempty"`
}

//go:embed schema/envelope.schema.json
var envelopeSchemaJSON string

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func envelopeSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = jsonschema.CompileString("envelope.schema.json", envelopeSchemaJSON)
	})
	return schema, schemaErr
}

// Decode parses a single envelope or a JSON array of envelopes, validating
// each against the envelope schema.
func Decode(data []byte) ([]Envelope, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidEnvelope)
	}
	var raws []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
		}
	} else {
		raws = []json.RawMessage{trimmed}
	}
	out := make([]Envelope, 0, len(raws))
	for i, raw := range raws {
		env, err := DecodeOne(raw)
		if err != nil {
			if len(raws) > 1 {
				return nil, fmt.Errorf("envelope %d: %w", i, err)
			}
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// DecodeOne validates and parses one envelope object.
func DecodeOne(raw []byte) (Envelope, error) {
	s, err := envelopeSchema()
	if err != nil {
		return Envelope{}, fmt.Errorf("compile envelope schema: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	if err := s.Validate(doc); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s", ErrInvalidEnvelope, firstLine(err.Error()))
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidEnvelope, err)
	}
	return env, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
