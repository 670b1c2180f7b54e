package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"goldledger/internal/ledger"
)

const txColumns = `id, kind, occurred_at_ns, character_key, value, item_id, item_link, quantity, source, confidence, low_confidence`

func (s *Store) Append(ctx context.Context, t ledger.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID == "" {
		t.ID = ledger.NewID(t.Timestamp)
	}
	q := fmt.Sprintf(`INSERT INTO ledger_transactions (%s) VALUES (%s)`, txColumns, s.placeholders(1, 11))
	_, err := s.DB.ExecContext(ctx, q,
		t.ID, string(t.Kind), t.Timestamp.UnixNano(), t.CharacterKey, t.Value,
		t.ItemID, t.ItemLink, t.Quantity, t.Source, string(t.Confidence), t.LowConfidence,
	)
	if err != nil {
		return fmt.Errorf("append transaction: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, f ledger.Filter) ([]ledger.Transaction, error) {
	where, args := s.where(f)
	q := `SELECT ` + txColumns + ` FROM ledger_transactions` + where + ` ORDER BY seq`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += ` LIMIT ` + s.d.placeholder(len(args))
	}
	if f.Offset > 0 {
		if f.Limit <= 0 && s.d.name == DriverSQLite {
			// SQLite only accepts OFFSET after a LIMIT.
			q += ` LIMIT -1`
		}
		args = append(args, f.Offset)
		q += ` OFFSET ` + s.d.placeholder(len(args))
	}
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()
	out := []ledger.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) Aggregate(ctx context.Context, f ledger.Filter) (ledger.Summary, error) {
	where, args := s.where(f)
	q := `SELECT
		CAST(COALESCE(SUM(CASE WHEN value > 0 THEN value ELSE 0 END), 0) AS BIGINT),
		CAST(COALESCE(SUM(CASE WHEN value < 0 THEN -value ELSE 0 END), 0) AS BIGINT),
		COUNT(*)
		FROM ledger_transactions` + where
	var sum ledger.Summary
	if err := s.DB.QueryRowContext(ctx, q, args...).Scan(&sum.TotalIncome, &sum.TotalExpense, &sum.Count); err != nil {
		return ledger.Summary{}, fmt.Errorf("aggregate transactions: %w", err)
	}
	sum.NetGold = sum.TotalIncome - sum.TotalExpense
	return sum, nil
}

// PurgeOlderThan deletes entries older than maxAge at now. Entries stamped
// after now are kept, as is everything when maxAge is not positive.
func (s *Store) PurgeOlderThan(ctx context.Context, maxAge time.Duration, now time.Time) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	cutoff := now.Add(-maxAge).UnixNano()
	q := `DELETE FROM ledger_transactions WHERE occurred_at_ns < ` + s.d.placeholder(1)
	res, err := s.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Store) where(f ledger.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, s.d.placeholder(len(args))))
	}
	if f.From != nil {
		add("occurred_at_ns >= %s", f.From.UnixNano())
	}
	if f.To != nil {
		add("occurred_at_ns <= %s", f.To.UnixNano())
	}
	if f.Character != "" {
		add("character_key = %s", f.Character)
	}
	if len(f.Kinds) > 0 {
		ph := make([]string, len(f.Kinds))
		for i, k := range f.Kinds {
			args = append(args, string(k))
			ph[i] = s.d.placeholder(len(args))
		}
		conds = append(conds, "kind IN ("+strings.Join(ph, ", ")+")")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (s *Store) placeholders(from, n int) string {
	ph := make([]string, n)
	for i := range ph {
		ph[i] = s.d.placeholder(from + i)
	}
	return strings.Join(ph, ", ")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (ledger.Transaction, error) {
	var (
		t          ledger.Transaction
		kind, conf string
		ns         int64
	)
	err := row.Scan(&t.ID, &kind, &ns, &t.CharacterKey, &t.Value, &t.ItemID, &t.ItemLink, &t.Quantity, &t.Source, &conf, &t.LowConfidence)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Kind = ledger.Kind(kind)
	t.Confidence = ledger.Confidence(conf)
	t.Timestamp = time.Unix(0, ns).UTC()
	return t, nil
}
