package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// ErrSchemaMissing is returned when kv_state has not been created yet.
var ErrSchemaMissing = errors.New("state table missing, run migrations")

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

var _ domain.StateRepository = (*SQLStateRepository)(nil)

type SQLStateRepository struct {
	db *sqlx.DB
}

func NewSQLStateRepository(db *sqlx.DB) *SQLStateRepository {
	return &SQLStateRepository{db: db}
}

// Open connects with one of the supported drivers. SQLite is limited to a
// single connection since every write goes through the same file lock.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite, DriverPgx, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}
	return db, nil
}

func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		return fmt.Errorf("failed to create kv_state: %w", err)
	}
	return nil
}

// classify maps driver specific "no such table" errors to ErrSchemaMissing.
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42P01" {
		return ErrSchemaMissing
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return ErrSchemaMissing
	}
	if strings.Contains(err.Error(), "no such table") {
		return ErrSchemaMissing
	}
	return err
}

func (r *SQLStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	query := r.db.Rebind(`SELECT value FROM kv_state WHERE key = ?`)

	if err := r.db.GetContext(ctx, &value, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, classify(err))
	}
	return []byte(value), nil
}

func (r *SQLStateRepository) Put(ctx context.Context, key string, value []byte) error {
	return r.PutMany(ctx, map[string][]byte{key: value})
}

// PutMany writes every entry in one transaction.
func (r *SQLStateRepository) PutMany(ctx context.Context, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := r.db.Rebind(`
        INSERT INTO kv_state (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`)

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now().UTC()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, query, k, string(entries[k]), now); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, classify(err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

func (r *SQLStateRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	query, args, err := sqlx.In(`DELETE FROM kv_state WHERE key IN (?)`, keys)
	if err != nil {
		return fmt.Errorf("failed to build delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to delete keys: %w", classify(err))
	}
	return nil
}

func (r *SQLStateRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_state`); err != nil {
		return fmt.Errorf("failed to clear state: %w", classify(err))
	}
	return nil
}

func (r *SQLStateRepository) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, `SELECT key FROM kv_state ORDER BY key`); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", classify(err))
	}
	return keys, nil
}

// Ping backs the health endpoint.
func (r *SQLStateRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
