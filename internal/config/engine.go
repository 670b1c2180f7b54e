package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// EngineConfig tunes the reconciliation windows. Durations are whole
// milliseconds so they stay readable in an env file.
type EngineConfig struct {
	CharacterKey string `env:"CHARACTER_KEY" envDefault:"Unknown-Unknown"`

	ArbiterTimeoutMS    int   `env:"ARBITER_TIMEOUT_MS" envDefault:"500"`
	ArbiterStaleMS      int   `env:"ARBITER_STALE_MS" envDefault:"2000"`
	ArbiterMinMagnitude int64 `env:"ARBITER_MIN_MAGNITUDE" envDefault:"1"`

	PendingActionStaleMS int `env:"PENDING_ACTION_STALE_MS" envDefault:"3000"`
	MatchWindowMS        int `env:"MATCH_WINDOW_MS" envDefault:"2000"`
	ValueTolerancePct    int `env:"VALUE_TOLERANCE_PCT" envDefault:"10"`

	MetadataRetryMax    int `env:"METADATA_RETRY_MAX" envDefault:"10"`
	MetadataRetryBaseMS int `env:"METADATA_RETRY_BASE_MS" envDefault:"20"`
	MetadataRetryCapMS  int `env:"METADATA_RETRY_CAP_MS" envDefault:"40"`

	StrictInvariants bool `env:"STRICT_INVARIANTS" envDefault:"false"`
}

func LoadEngine() (EngineConfig, error) {
	var cfg EngineConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c EngineConfig) ArbiterTimeout() time.Duration {
	return ms(c.ArbiterTimeoutMS)
}

func (c EngineConfig) ArbiterStale() time.Duration {
	return ms(c.ArbiterStaleMS)
}

func (c EngineConfig) PendingActionStale() time.Duration {
	return ms(c.PendingActionStaleMS)
}

func (c EngineConfig) MatchWindow() time.Duration {
	return ms(c.MatchWindowMS)
}

func (c EngineConfig) MetadataRetryBase() time.Duration {
	return ms(c.MetadataRetryBaseMS)
}

func (c EngineConfig) MetadataRetryCap() time.Duration {
	return ms(c.MetadataRetryCapMS)
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
