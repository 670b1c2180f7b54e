// Package store persists the ledger in SQL: Postgres through pgx for shared
// deployments, SQLite for a local single-player file.
package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"goldledger/internal/config"
	"goldledger/internal/ledger"
)

var ErrUnsupportedDriver = errors.New("unsupported ledger driver")

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/*.sql
var migrations embed.FS

type dialect struct {
	name      string
	sqlDriver string
	schema    string
}

func (d dialect) placeholder(n int) string {
	if d.name == DriverPostgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var dialects = map[string]dialect{
	DriverPostgres: {name: DriverPostgres, sqlDriver: "pgx", schema: "migrations/postgres.sql"},
	DriverSQLite:   {name: DriverSQLite, sqlDriver: "sqlite", schema: "migrations/sqlite.sql"},
}

// Store wraps DB access.
type Store struct {
	DB *sql.DB
	d  dialect
}

var _ ledger.Store = (*Store)(nil)
var _ ledger.RetentionStore = (*Store)(nil)

// Open connects with the named driver and applies the schema.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if d.name == DriverSQLite {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open(d.sqlDriver, dsn)
	if err != nil {
		return nil, err
	}
	if d.name == DriverSQLite {
		// One writer; the engine appends from a single goroutine anyway.
		db.SetMaxOpenConns(1)
	}
	s := &Store{DB: db, d: d}
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenLedger builds the ledger store named by cfg. The returned close
// function is never nil.
func OpenLedger(ctx context.Context, cfg config.StoreConfig) (ledger.Store, func() error, error) {
	if cfg.Driver == DriverMemory {
		return ledger.NewMemoryStore(), func() error { return nil }, nil
	}
	s, err := Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, func() error { return nil }, err
	}
	return s, s.Close, nil
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.DB.PingContext(ctx)
}

func (s *Store) Driver() string { return s.d.name }

// Migrate creates the tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	raw, err := migrations.ReadFile(s.d.schema)
	if err != nil {
		return err
	}
	for _, stmt := range strings.Split(string(raw), ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func ensureDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
