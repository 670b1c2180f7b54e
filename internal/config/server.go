package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8787"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	CatalogPath    string `env:"CATALOG_PATH"`
	WSMaxMessageKB int    `env:"WS_MAX_MESSAGE_KB" envDefault:"256"`
	IngestBuffer   int    `env:"INGEST_BUFFER" envDefault:"1024"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
