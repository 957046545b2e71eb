// Package pgstore persists sessions in PostgreSQL. The schema is
// managed with embedded migrations, applied on Connect.
package pgstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/forfuturellc/mau/store"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds connection settings.
type Config struct {
	// DSN is a libpq connection string or URL.
	DSN string
	// MaxConnections caps the pool; 0 leaves the driver default.
	MaxConnections int
	// ConnectTimeout bounds the initial connect and ping; 0 means 5s.
	ConnectTimeout time.Duration
}

// Store persists values in a mau_sessions table with per-row expiry.
// Expired rows are invisible to Get and reaped on write.
type Store struct {
	db *sqlx.DB
}

var _ store.Store = (*Store)(nil)

// Connect opens the pool, verifies connectivity and applies pending
// migrations.
func Connect(cfg Config) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing pool without running migrations. The
// caller keeps ownership of the pool's lifecycle.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func runMigrations(db *sqlx.DB) error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{
		MigrationsTable: "mau_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("init migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Get returns the value under key if the row exists and has not
// expired.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowxContext(ctx,
		`SELECT value FROM mau_sessions
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Put upserts the row and resets its expiry, then reaps expired rows
// opportunistically.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt sql.NullTime
	if ttl > 0 {
		expiresAt = sql.NullTime{Time: time.Now().Add(ttl), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mau_sessions (key, value, expires_at, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (key) DO UPDATE
		 SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = now()`,
		key, value, expiresAt,
	)
	if err != nil {
		return err
	}
	// Best effort; expired rows are already invisible to Get.
	_, _ = s.db.ExecContext(ctx,
		`DELETE FROM mau_sessions WHERE expires_at IS NOT NULL AND expires_at <= now()`)
	return nil
}

// Del removes the row, reporting whether a live one existed.
func (s *Store) Del(ctx context.Context, key string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mau_sessions
		 WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())`,
		key,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close releases the underlying pool.
func (s *Store) Close() error { return s.db.Close() }
