package ledger

import (
	"context"
	"time"
)

// Store is the append-only persistence contract. Implementations never
// mutate a stored record; PurgeOlderThan is the only deleting operation.
type Store interface {
	Append(ctx context.Context, t Transaction) error
	Query(ctx context.Context, f Filter) ([]Transaction, error)
	Aggregate(ctx context.Context, f Filter) (Summary, error)
	// PurgeOlderThan deletes entries whose age at now exceeds maxAge and
	// returns how many were removed.
	PurgeOlderThan(ctx context.Context, maxAge time.Duration, now time.Time) (int, error)
}

// Expired reports whether an entry stamped at ts is older than maxAge at now.
// Entries from the future (clock moved backwards) are never expired.
func Expired(ts, now time.Time, maxAge time.Duration) bool {
	if maxAge <= 0 {
		return false
	}
	age := now.Sub(ts)
	if age < 0 {
		return false
	}
	return age > maxAge
}
