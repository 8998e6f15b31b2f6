package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/tripboard/internal/domain"
)

// redisDocumentStore is the Redis implementation of DocumentStore.
// The body is stored under doc:<key> and every write is published on a
// channel of the same name with the new body as payload.
type redisDocumentStore struct {
	rdb redis.UniversalClient
}

// NewRedisDocumentStore constructs a DocumentStore backed by rdb.
func NewRedisDocumentStore(rdb redis.UniversalClient) DocumentStore {
	return &redisDocumentStore{rdb: rdb}
}

func redisKey(key string) string { return "doc:" + key }

// Get returns the body stored under the document key.
func (r *redisDocumentStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	body, err := r.rdb.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("repo.RedisDocumentStore.Get: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("repo.RedisDocumentStore.Get: %w", err)
	}
	return json.RawMessage(body), nil
}

// Set writes and publishes inside one MULTI/EXEC, so subscribers see
// publications in the same order as the writes.
func (r *redisDocumentStore) Set(ctx context.Context, key string, body json.RawMessage) error {
	if !json.Valid(body) {
		return fmt.Errorf("repo.RedisDocumentStore.Set: %w: body is not valid JSON", domain.ErrValidation)
	}
	k := redisKey(key)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, []byte(body), 0)
		pipe.Publish(ctx, k, []byte(body))
		return nil
	})
	if err != nil {
		return fmt.Errorf("repo.RedisDocumentStore.Set: %w", err)
	}
	return nil
}

// Subscribe confirms the channel subscription before reading the current
// value, so no write committed between the two can be missed.
func (r *redisDocumentStore) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	ps := r.rdb.Subscribe(ctx, redisKey(key))
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("repo.RedisDocumentStore.Subscribe: %w", err)
	}

	first, err := currentChange(ctx, r, key)
	if err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("repo.RedisDocumentStore.Subscribe: %w", err)
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
		defer ps.Close()

		msgs := ps.Channel()
		for {
			select {
			case <-feedCtx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				sub.deliver(Change{Key: key, Body: json.RawMessage(msg.Payload), Exists: true})
			}
		}
	}()

	return sub, nil
}
