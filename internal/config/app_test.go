package config

import "testing"

func TestLoadAppAggregates(t *testing.T) {
	t.Setenv("LEDGER_LOG_LEVEL", "warn")
	t.Setenv("LEDGER_DRIVER", "memory")

	cfg, err := LoadApp()
	if err != nil {
		t.Fatalf("LoadApp() error = %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Store.Driver != "memory" {
		t.Fatalf("Store.Driver = %q, want memory", cfg.Store.Driver)
	}
	if cfg.Engine.ArbiterTimeoutMS != 500 {
		t.Fatalf("Engine.ArbiterTimeoutMS = %d, want 500", cfg.Engine.ArbiterTimeoutMS)
	}
}
