package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/tripboard/internal/domain"
)

// notifyChannel is the LISTEN/NOTIFY channel every document write is
// announced on. The payload is the document key; listeners re-read the body
// because NOTIFY payloads are capped at 8000 bytes.
const notifyChannel = "documents"

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgDocumentStore is the Postgres implementation of DocumentStore.
// Bodies live in documents.body (jsonb). Reads and writes go through the
// pool; every subscription LISTENs on its own connection opened outside the
// pool, so open feeds never starve queries of pooled connections.
type pgDocumentStore struct {
	db     db
	listen func(ctx context.Context) (*pgx.Conn, error)
}

// NewPostgresDocumentStore constructs a DocumentStore backed by pool.
// Subscriptions dial with the pool's connection settings.
func NewPostgresDocumentStore(pool *pgxpool.Pool) DocumentStore {
	connConfig := pool.Config().ConnConfig
	return &pgDocumentStore{
		db: pool,
		listen: func(ctx context.Context) (*pgx.Conn, error) {
			return pgx.ConnectConfig(ctx, connConfig.Copy())
		},
	}
}

// Get returns the body of the document with the given key.
func (r *pgDocumentStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	const q = `SELECT body FROM documents WHERE key = @key`

	var body []byte
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"key": key}).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repo.PostgresDocumentStore.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repo.PostgresDocumentStore.Get: %w", err)
	}
	return json.RawMessage(body), nil
}

// Set upserts the document and announces the write in the same statement,
// so the notification is delivered exactly when the write commits.
func (r *pgDocumentStore) Set(ctx context.Context, key string, body json.RawMessage) error {
	const q = `
		WITH up AS (
			INSERT INTO documents (key, body)
			VALUES (@key, @body::jsonb)
			ON CONFLICT (key) DO UPDATE
				SET body = EXCLUDED.body, updated_at = now()
			RETURNING key
		)
		SELECT pg_notify(@channel, key) FROM up`

	args := pgx.NamedArgs{
		"key":     key,
		"body":    string(body),
		"channel": notifyChannel,
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.PostgresDocumentStore.Set: %w", err)
	}
	return nil
}

// Subscribe starts listening before reading the current value, so no write
// committed between the two can be missed.
func (r *pgDocumentStore) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	conn, err := r.listen(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo.PostgresDocumentStore.Subscribe: connect: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		closeListener(conn)
		return nil, fmt.Errorf("repo.PostgresDocumentStore.Subscribe: listen: %w", err)
	}

	first, err := currentChange(ctx, r, key)
	if err != nil {
		closeListener(conn)
		return nil, fmt.Errorf("repo.PostgresDocumentStore.Subscribe: %w", err)
	}

	feedCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	sub := newSubscription(func() {
		cancel()
		<-done
	})
	sub.deliver(first)

	go func() {
		defer close(done)
		defer close(sub.updates)
		defer closeListener(conn)

		for {
			n, err := conn.WaitForNotification(feedCtx)
			if err != nil {
				return
			}
			if n.Payload != key {
				continue
			}
			c, err := currentChange(feedCtx, r, key)
			if err != nil {
				return
			}
			sub.deliver(c)
		}
	}()

	return sub, nil
}

// closeListener closes a subscription's dedicated connection. A
// connection broken by cancellation closes without a round trip.
func closeListener(conn *pgx.Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = conn.Close(ctx)
}

// currentChange reads key through s and reports a missing document as a
// Change with Exists=false.
func currentChange(ctx context.Context, s DocumentStore, key string) (Change, error) {
	body, err := s.Get(ctx, key)
	if errors.Is(err, domain.ErrNotFound) {
		return Change{Key: key}, nil
	}
	if err != nil {
		return Change{}, err
	}
	return Change{Key: key, Body: body, Exists: true}, nil
}
