// Package testutil holds the connection helpers shared by the storage
// integration tests. Every helper skips its test when the matching TEST_*
// variable is unset, so the unit suite needs no running servers.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" driver for database/sql
)

const (
	// databaseURLEnv names the Postgres DSN used by the integration tests.
	databaseURLEnv = "TEST_DATABASE_URL"
	connectTimeout = 10 * time.Second
)

// NewPool connects a pgx pool to TEST_DATABASE_URL with the default pool
// size. Closed on test cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	return newPool(t, 0)
}

// NewPoolWithMaxConns is NewPool capped at maxConns connections, for tests
// that must hold up on small hosts where the default cap is low.
func NewPoolWithMaxConns(t *testing.T, maxConns int32) *pgxpool.Pool {
	t.Helper()
	return newPool(t, maxConns)
}

func newPool(t *testing.T, maxConns int32) *pgxpool.Pool {
	t.Helper()

	cfg, err := pgxpool.ParseConfig(requireEnv(t, databaseURLEnv))
	if err != nil {
		t.Fatalf("testutil.NewPool: parse: %v", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// NewSQLDB opens TEST_DATABASE_URL through database/sql, which is what goose
// drives. Closed on test cleanup.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := openSQL(requireEnv(t, databaseURLEnv))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, where there is no *testing.T.
// It panics on failure and the caller closes the result.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := openSQL(dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}

func openSQL(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}
