package ledger

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the ledger in append order in process memory.
type MemoryStore struct {
	mu  sync.RWMutex
	txs []Transaction
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Append(_ context.Context, t Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = append(s.txs, t)
	return nil
}

func (s *MemoryStore) Query(_ context.Context, f Filter) ([]Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	return f.Page(out), nil
}

func (s *MemoryStore) Aggregate(_ context.Context, f Filter) (Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum Summary
	for _, t := range s.txs {
		if f.Matches(t) {
			sum.Add(t)
		}
	}
	return sum, nil
}

func (s *MemoryStore) PurgeOlderThan(_ context.Context, maxAge time.Duration, now time.Time) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.txs[:0]
	removed := 0
	for _, t := range s.txs {
		if Expired(t.Timestamp, now, maxAge) {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	// zero the tail so purged records can be collected
	for i := len(kept); i < len(s.txs); i++ {
		s.txs[i] = Transaction{}
	}
	s.txs = kept
	return removed, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.txs)
}
