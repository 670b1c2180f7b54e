package export

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"

	"goldledger/internal/ledger"
)

func TestWriteRead(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	txs := []ledger.Transaction{
		{ID: "a", Kind: ledger.KindSale, Timestamp: at, CharacterKey: "A-R", Value: 300, ItemID: 2589, Quantity: 1, Source: "Vendor", Confidence: ledger.ConfidenceInferred},
		{ID: "b", Kind: ledger.KindUnclaimedExpense, Timestamp: at.Add(time.Second), CharacterKey: "A-R", Value: -20, Source: ledger.UnknownSource, Confidence: ledger.ConfidenceGeneric},
	}
	var buf bytes.Buffer
	if err := Write(&buf, txs); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(txs) {
		t.Fatalf("len(got) = %d, want %d", len(got), len(txs))
	}
	for i := range txs {
		if !got[i].Timestamp.Equal(txs[i].Timestamp) {
			t.Fatalf("timestamp[%d] = %v, want %v", i, got[i].Timestamp, txs[i].Timestamp)
		}
		got[i].Timestamp = txs[i].Timestamp
		if got[i] != txs[i] {
			t.Fatalf("got[%d] = %+v, want %+v", i, got[i], txs[i])
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len(got) = %d, want 0", len(got))
	}
}

func TestReadRejectsInvalidRecord(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	if err != nil {
		t.Fatalf("zstd: %v", err)
	}
	_, _ = enc.Write([]byte(`{"id":"x","kind":"sale","timestamp":"2026-03-01T12:00:00Z","value":-5}` + "\n"))
	_ = enc.Close()

	_, err = Read(&buf)
	if !errors.Is(err, ledger.ErrSignMismatch) {
		t.Fatalf("err = %v, want ErrSignMismatch", err)
	}
}
