package engine

import (
	"time"

	"goldledger/internal/config"
)

// Config holds the engine's timing windows and thresholds.
type Config struct {
	CharacterKey string

	ArbiterTimeout time.Duration
	ArbiterStale   time.Duration
	MinMagnitude   int64

	// PendingStale is how long an action waits for its balance change.
	PendingStale time.Duration
	// MatchWindow is how long a held balance change waits for its action.
	MatchWindow  time.Duration
	TolerancePct int

	MetadataRetry Backoff

	StrictInvariants bool
}

func DefaultConfig() Config {
	return Config{
		CharacterKey:   "Unknown-Unknown",
		ArbiterTimeout: 500 * time.Millisecond,
		ArbiterStale:   2 * time.Second,
		MinMagnitude:   1,
		PendingStale:   3 * time.Second,
		MatchWindow:    2 * time.Second,
		TolerancePct:   10,
		MetadataRetry: Backoff{
			Attempts: 10,
			Base:     20 * time.Millisecond,
			Max:      40 * time.Millisecond,
		},
	}
}

func ConfigFrom(c config.EngineConfig) Config {
	return Config{
		CharacterKey:   c.CharacterKey,
		ArbiterTimeout: c.ArbiterTimeout(),
		ArbiterStale:   c.ArbiterStale(),
		MinMagnitude:   c.ArbiterMinMagnitude,
		PendingStale:   c.PendingActionStale(),
		MatchWindow:    c.MatchWindow(),
		TolerancePct:   c.ValueTolerancePct,
		MetadataRetry: Backoff{
			Attempts: c.MetadataRetryMax,
			Base:     c.MetadataRetryBase(),
			Max:      c.MetadataRetryCap(),
		},
		StrictInvariants: c.StrictInvariants,
	}
}
