package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goldledger/internal/engine"
	"goldledger/internal/inventory"
)

func TestDecodeSingleAndArray(t *testing.T) {
	envs, err := Decode([]byte(`{"type":"balance_changed","balance":1300}`))
	require.NoError(t, err)
	require.Len(t, envs, 1)
	require.NotNil(t, envs[0].Balance)
	assert.Equal(t, int64(1300), *envs[0].Balance)

	envs, err = Decode([]byte(`[
		{"type":"venue_opened","venue":"merchant","source":"Innkeeper Farley","at":"2026-03-01T12:00:00Z"},
		{"type":"inventory_changed","scope":"bags","slots":[{"item_id":2589,"link":"item:2589","quantity":3}]},
		{"type":"action","action":{"venue":"mailbox","name":"send","amount":100,"items":[{"item_id":7,"quantity":1}]}},
		{"type":"item_info","item":{"id":2589,"name":"Linen Cloth","vendor_price":13}},
		{"type":"character","character":"Tester-Realm"}
	]`))
	require.NoError(t, err)
	require.Len(t, envs, 5)
	assert.Equal(t, engine.VenueMerchant, envs[0].Venue)
	require.NotNil(t, envs[0].At)
	assert.Equal(t, inventory.ScopeBags, envs[1].Scope)
	assert.Equal(t, 3, envs[1].Slots[0].Quantity)
	assert.Equal(t, engine.ActionSend, envs[2].Action.Name)
	assert.Equal(t, int64(13), envs[3].Item.VendorPrice)
	assert.Equal(t, "Tester-Realm", envs[4].Character)
}

func TestDecodeRejects(t *testing.T) {
	bad := []string{
		``,
		`not json`,
		`{"type":"nope"}`,
		`{"type":"balance_changed"}`,
		`{"type":"venue_opened","venue":"tavern"}`,
		`{"type":"inventory_changed","scope":"pockets","slots":[]}`,
		`{"type":"inventory_changed","scope":"bags","slots":[{"item_id":0,"quantity":1}]}`,
		`{"type":"action","action":{"venue":"merchant"}}`,
		`{"type":"balance_changed","balance":1.5}`,
		`{"type":"balance_changed","balance":1,"extra":true}`,
		`[{"type":"character","character":"A-B"},{"type":"character"}]`,
	}
	for _, s := range bad {
		_, err := Decode([]byte(s))
		assert.ErrorIs(t, err, ErrInvalidEnvelope, "input %q", s)
	}
}
