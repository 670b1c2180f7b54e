package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goldledger/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestInitWritesToLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	Init(config.LogConfig{Level: "debug", File: path, MaxMB: 1})
	defer func() { _ = Close() }()

	log.Info().Str("kind", "sale").Msg("ledger append")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "ledger append") {
		t.Fatalf("log file missing message: %q", string(b))
	}
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Fatalf("GlobalLevel = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestInitFallsBackToInfoOnBadLevel(t *testing.T) {
	Init(config.LogConfig{Level: "loud"})
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Fatalf("GlobalLevel = %v, want info", zerolog.GlobalLevel())
	}
	if Writer() == nil {
		t.Fatal("Writer() = nil")
	}
}

func TestInitRotatesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgerd.log")
	Init(config.LogConfig{Level: "info", File: path, MaxMB: 1, Backups: 1})
	defer func() { _ = Close() }()

	line := strings.Repeat("g", 64*1024)
	for i := 0; i < 24; i++ {
		log.Info().Int("n", i).Str("pad", line).Msg("ledger append")
	}

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Fatalf("expected a rotated file: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat log: %v", err)
	}
	if info.Size() > 1<<20 {
		t.Fatalf("current log = %d bytes, want <= 1MB", info.Size())
	}
}
