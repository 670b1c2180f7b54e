package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type StoreConfig struct {
	Driver               string `env:"LEDGER_DRIVER" envDefault:"sqlite"`
	DSN                  string `env:"LEDGER_DSN" envDefault:"data/ledger.db"`
	RetentionDays        int    `env:"RETENTION_DAYS" envDefault:"90"`
	PurgeIntervalMinutes int    `env:"PURGE_INTERVAL_MINUTES" envDefault:"60"`
}

func LoadStore() (StoreConfig, error) {
	var cfg StoreConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c StoreConfig) Retention() time.Duration {
	return time.Duration(c.RetentionDays) * 24 * time.Hour
}

func (c StoreConfig) PurgeInterval() time.Duration {
	return time.Duration(c.PurgeIntervalMinutes) * time.Minute
}
