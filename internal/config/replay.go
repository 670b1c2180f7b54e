package config

import "github.com/caarlos0/env/v11"

type ReplayConfig struct {
	EventsPath  string `env:"REPLAY_EVENTS"`
	CatalogPath string `env:"CATALOG_PATH"`
	ExportPath  string `env:"REPLAY_EXPORT"`
}

func LoadReplay() (ReplayConfig, error) {
	var cfg ReplayConfig
	err := env.Parse(&cfg)
	return cfg, err
}
