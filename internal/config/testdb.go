package config

import "github.com/caarlos0/env/v11"

// TestDBConfig points the Postgres-backed store tests at a server. Each test
// runs in its own schema, dropped afterwards unless KeepSchema is set.
type TestDBConfig struct {
	PostgresDSN string `env:"LEDGER_TEST_POSTGRES_DSN,required,notEmpty"`
	KeepSchema  bool   `env:"LEDGER_TEST_KEEP_SCHEMA" envDefault:"false"`
}

// LoadTestDB fails when no DSN is configured; callers skip on error.
func LoadTestDB() (TestDBConfig, error) {
	return env.ParseAs[TestDBConfig]()
}
