package ledger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Janitor purges the ledger on a fixed interval.
type Janitor struct {
	ledger    *Ledger
	retention atomic.Int64
	now       func() time.Time
}

func NewJanitor(l *Ledger, retention time.Duration) *Janitor {
	j := &Janitor{ledger: l, now: time.Now}
	j.retention.Store(int64(retention))
	return j
}

func (j *Janitor) Retention() time.Duration {
	return time.Duration(j.retention.Load())
}

// SetRetention changes the window and persists it when the store supports it.
func (j *Janitor) SetRetention(ctx context.Context, d time.Duration) error {
	if rs, ok := j.ledger.Store.(RetentionStore); ok {
		if err := rs.SetRetention(ctx, d); err != nil {
			return err
		}
	}
	j.retention.Store(int64(d))
	return nil
}

// LoadRetention replaces the configured window with the persisted one, if any.
func (j *Janitor) LoadRetention(ctx context.Context) error {
	rs, ok := j.ledger.Store.(RetentionStore)
	if !ok {
		return nil
	}
	d, found, err := rs.Retention(ctx)
	if err != nil {
		return err
	}
	if found {
		j.retention.Store(int64(d))
	}
	return nil
}

func (j *Janitor) PurgeNow(ctx context.Context) (int, error) {
	return j.ledger.PurgeOlderThan(ctx, j.Retention(), j.now())
}

func (j *Janitor) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := j.PurgeNow(ctx); err != nil {
					log.Error().Err(err).Msg("ledger purge failed")
				}
			}
		}
	}()
}
