package config

import "testing"

func TestLoadReplayOverrides(t *testing.T) {
	t.Setenv("REPLAY_EVENTS", "session.jsonl")
	t.Setenv("REPLAY_EXPORT", "out.jsonl.zst")

	cfg, err := LoadReplay()
	if err != nil {
		t.Fatalf("LoadReplay() error = %v", err)
	}
	if cfg.EventsPath != "session.jsonl" || cfg.ExportPath != "out.jsonl.zst" {
		t.Fatalf("unexpected replay config: %+v", cfg)
	}
}
