// Package repository stores the history of batch runs. The ledger is for
// the operator only; duplicate detection never reads from it.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

type Config struct {
	// DSN is a postgres:// URL or a path to a SQLite file.
	DSN         string
	MaxConns    int32
	DialTimeout time.Duration
}

// DB is an open ledger database.
type DB struct {
	SQL     *sql.DB
	Dialect Dialect
	pool    *pgxpool.Pool
	logger  *slog.Logger
}

// DialectFor picks the backend from the DSN scheme.
func DialectFor(dsn string) Dialect {
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open connects to the ledger and creates its tables if needed.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}

	db := &DB{Dialect: DialectFor(cfg.DSN), logger: logger}
	switch db.Dialect {
	case DialectPostgres:
		logger.Info("connecting to database", "dialect", db.Dialect)
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}
		if cfg.MaxConns > 0 {
			pc.MaxConns = cfg.MaxConns
		}
		pc.ConnConfig.RuntimeParams["application_name"] = "sheet-sorter"

		dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, err
		}
		db.pool = pool
		db.SQL = stdlib.OpenDBFromPool(pool)
	default:
		if dir := filepath.Dir(cfg.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
		logger.Info("opening database", "dialect", db.Dialect, "path", cfg.DSN)
		sep := "?"
		if strings.Contains(cfg.DSN, "?") {
			sep = "&"
		}
		sqlDB, err := sql.Open("sqlite", cfg.DSN+sep+"_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
		if err != nil {
			logger.Error("failed to open database", "error", err)
			return nil, err
		}
		// one writer keeps SQLite free of lock errors
		sqlDB.SetMaxOpenConns(1)
		db.SQL = sqlDB
	}

	if err := db.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate ledger: %w", err)
	}
	return db, nil
}

// Close closes the database connections gracefully
func (db *DB) Close() {
	if db == nil {
		return
	}
	if db.SQL != nil {
		if err := db.SQL.Close(); err != nil {
			db.logger.Error("failed to close database", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	db.logger.Debug("database connections closed")
}

// HealthCheck pings the database, bounded by timeout when positive.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	db.logger.Debug("pinging database")
	return db.SQL.PingContext(ctx)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id           TEXT PRIMARY KEY,
		input_dir        TEXT NOT NULL,
		output_dir       TEXT NOT NULL,
		org_mode         TEXT NOT NULL,
		catalog_version  TEXT NOT NULL,
		dry_run          INTEGER NOT NULL DEFAULT 0,
		canceled         INTEGER NOT NULL DEFAULT 0,
		started_at       TEXT NOT NULL,
		finished_at      TEXT NOT NULL,
		total_files      INTEGER NOT NULL,
		successful       INTEGER NOT NULL,
		failed           INTEGER NOT NULL,
		duplicates       INTEGER NOT NULL,
		ocr_successes    INTEGER NOT NULL,
		archived_as_test INTEGER NOT NULL,
		excluded         INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		id               TEXT PRIMARY KEY,
		run_id           TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		idx              INTEGER NOT NULL,
		source           TEXT NOT NULL,
		target           TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL,
		stage            TEXT NOT NULL,
		failed_at        TEXT NOT NULL DEFAULT '',
		error            TEXT NOT NULL DEFAULT '',
		size             BIGINT NOT NULL DEFAULT 0,
		pages            INTEGER NOT NULL DEFAULT 0,
		content_hash     TEXT NOT NULL DEFAULT '',
		text_hash        TEXT NOT NULL DEFAULT '',
		instrument       TEXT NOT NULL DEFAULT '',
		part             TEXT NOT NULL DEFAULT '',
		music_key        TEXT NOT NULL DEFAULT '',
		confidence       TEXT NOT NULL DEFAULT '',
		piece            TEXT NOT NULL DEFAULT '',
		piece_confidence TEXT NOT NULL DEFAULT '',
		is_test          INTEGER NOT NULL DEFAULT 0,
		ocr_ok           INTEGER NOT NULL DEFAULT 0,
		duplicate_of     TEXT NOT NULL DEFAULT '',
		duplicate_kind   TEXT NOT NULL DEFAULT '',
		finished_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS outcomes_run_idx ON outcomes (run_id, idx)`,
	`CREATE INDEX IF NOT EXISTS runs_started_idx ON runs (started_at)`,
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.SQL.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Rebind rewrites ? placeholders as $1, $2, ... for postgres.
func (db *DB) Rebind(query string) string {
	if db.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
