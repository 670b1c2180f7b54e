package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

var purgedRows = promauto.NewCounter(prometheus.CounterOpts{
	Name: "goldledger_purged_rows_total",
	Help: "Ledger rows removed by retention purges.",
})

// RetentionStore is implemented by stores that persist the purge retention
// setting next to the ledger.
type RetentionStore interface {
	Retention(ctx context.Context) (time.Duration, bool, error)
	SetRetention(ctx context.Context, d time.Duration) error
}

// Ledger fronts a Store: it stamps ids, validates records and fans appended
// transactions out to subscribers (display and export consumers).
type Ledger struct {
	Store Store

	mu       sync.Mutex
	watchers map[chan Transaction]struct{}
}

func New(st Store) *Ledger {
	return &Ledger{Store: st, watchers: map[chan Transaction]struct{}{}}
}

func (l *Ledger) Append(ctx context.Context, t Transaction) (Transaction, error) {
	if t.ID == "" {
		at := t.Timestamp
		if at.IsZero() {
			at = time.Now()
		}
		t.ID = NewID(at)
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	if err := l.Store.Append(ctx, t); err != nil {
		return Transaction{}, err
	}
	l.publish(t)
	return t, nil
}

func (l *Ledger) Query(ctx context.Context, f Filter) ([]Transaction, error) {
	return l.Store.Query(ctx, f)
}

func (l *Ledger) Aggregate(ctx context.Context, f Filter) (Summary, error) {
	return l.Store.Aggregate(ctx, f)
}

func (l *Ledger) PurgeOlderThan(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	n, err := l.Store.PurgeOlderThan(ctx, maxAge, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		purgedRows.Add(float64(n))
		log.Info().Int("removed", n).Dur("retention", maxAge).Msg("ledger purge")
	}
	return n, nil
}

// Subscribe returns a channel receiving every appended transaction. Slow
// subscribers miss entries rather than blocking the engine.
func (l *Ledger) Subscribe() chan Transaction {
	ch := make(chan Transaction, 64)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchers[ch] = struct{}{}
	return ch
}

func (l *Ledger) Unsubscribe(ch chan Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.watchers[ch]; ok {
		delete(l.watchers, ch)
		close(ch)
	}
}

func (l *Ledger) publish(t Transaction) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ch := range l.watchers {
		select {
		case ch <- t:
		default:
		}
	}
}
