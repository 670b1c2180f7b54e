package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

const retentionKey = "retention_days"

// Retention returns the persisted purge window, if one was saved.
func (s *Store) Retention(ctx context.Context) (time.Duration, bool, error) {
	q := `SELECT value FROM ledger_settings WHERE key = ` + s.d.placeholder(1)
	var raw string
	err := s.DB.QueryRowContext(ctx, q, retentionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load retention: %w", err)
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("load retention: bad value %q", raw)
	}
	return time.Duration(days) * 24 * time.Hour, true, nil
}

// SetRetention stores the window rounded down to whole days.
func (s *Store) SetRetention(ctx context.Context, d time.Duration) error {
	days := int(d / (24 * time.Hour))
	q := `INSERT INTO ledger_settings (key, value) VALUES (` + s.placeholders(1, 2) + `)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`
	if _, err := s.DB.ExecContext(ctx, q, retentionKey, strconv.Itoa(days)); err != nil {
		return fmt.Errorf("save retention: %w", err)
	}
	return nil
}
