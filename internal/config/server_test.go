package config

import "testing"

func TestLoadServerDefaults(t *testing.T) {
	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != ":8787" {
		t.Fatalf("HTTPAddr = %q, want :8787", cfg.HTTPAddr)
	}
	if cfg.WSMaxMessageKB != 256 {
		t.Fatalf("WSMaxMessageKB = %d, want 256", cfg.WSMaxMessageKB)
	}
	if cfg.IngestBuffer != 1024 {
		t.Fatalf("IngestBuffer = %d, want 1024", cfg.IngestBuffer)
	}
}

func TestLoadServerOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("ADMIN_API_KEY", "secret")
	t.Setenv("CATALOG_PATH", "items.yaml")

	cfg, err := LoadServer()
	if err != nil {
		t.Fatalf("LoadServer() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9000" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.AdminAPIKey != "secret" || cfg.CatalogPath != "items.yaml" {
		t.Fatalf("unexpected server config: %+v", cfg)
	}
}

func TestLoadServerRejectsBadInt(t *testing.T) {
	t.Setenv("WS_MAX_MESSAGE_KB", "lots")

	if _, err := LoadServer(); err == nil {
		t.Fatal("LoadServer() expected error, got nil")
	}
}
