package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// LogConfig drives the global zerolog logger of ledgerd and ledger-replay.
// Output always goes to stdout; LEDGER_LOG_FILE adds a copy on disk that
// rotates to .1, .2, ... once it grows past LEDGER_LOG_MAX_MB.
type LogConfig struct {
	Level  string `env:"LEDGER_LOG_LEVEL" envDefault:"info"`
	Pretty bool   `env:"LEDGER_LOG_PRETTY" envDefault:"false"`
	// SampleEvery keeps one line in N when above 1. Attribution debugging
	// wants every line, so it is off by default.
	SampleEvery int    `env:"LEDGER_LOG_SAMPLE_EVERY" envDefault:"0"`
	File        string `env:"LEDGER_LOG_FILE"`
	MaxMB       int    `env:"LEDGER_LOG_MAX_MB" envDefault:"16"`
	Backups     int    `env:"LEDGER_LOG_BACKUPS" envDefault:"1"`
}

var logLevels = []string{"trace", "debug", "info", "warn", "error", "fatal", "panic", "disabled"}

func LoadLog() (LogConfig, error) {
	cfg, err := env.ParseAs[LogConfig]()
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c LogConfig) Validate() error {
	level := strings.ToLower(strings.TrimSpace(c.Level))
	known := level == ""
	for _, l := range logLevels {
		if l == level {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("LEDGER_LOG_LEVEL %q: want one of %s", c.Level, strings.Join(logLevels, ", "))
	}
	if c.MaxMB < 0 || c.Backups < 0 || c.SampleEvery < 0 {
		return fmt.Errorf("log limits must not be negative (max_mb=%d backups=%d sample_every=%d)", c.MaxMB, c.Backups, c.SampleEvery)
	}
	return nil
}
