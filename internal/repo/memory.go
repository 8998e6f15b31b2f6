package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/pkordes/tripboard/internal/domain"
)

// MemoryDocumentStore is an in-process DocumentStore. It backs
// STORAGE_BACKEND=memory and the service tests. It is safe for concurrent use.
type MemoryDocumentStore struct {
	mu   sync.Mutex
	docs map[string]json.RawMessage
	subs map[string]map[*Subscription]struct{}
}

// NewMemoryDocumentStore returns an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs: make(map[string]json.RawMessage),
		subs: make(map[string]map[*Subscription]struct{}),
	}
}

// Get returns a copy of the stored body.
func (m *MemoryDocumentStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	_ = ctx
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("repo.MemoryDocumentStore.Get: %w", domain.ErrNotFound)
	}
	return slices.Clone(body), nil
}

// Set stores a copy of body and notifies subscribers while still holding
// the lock, so every subscriber observes writes in commit order.
func (m *MemoryDocumentStore) Set(ctx context.Context, key string, body json.RawMessage) error {
	_ = ctx
	if !json.Valid(body) {
		return fmt.Errorf("repo.MemoryDocumentStore.Set: %w: body is not valid JSON", domain.ErrValidation)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[key] = slices.Clone(body)
	for sub := range m.subs[key] {
		sub.deliver(Change{Key: key, Body: slices.Clone(body), Exists: true})
	}
	return nil
}

// Subscribe registers a feed and immediately delivers the current value.
// A ctx that is already done yields a feed that closes right away.
func (m *MemoryDocumentStore) Subscribe(ctx context.Context, key string) (*Subscription, error) {
	var sub *Subscription
	// stopAfter is written and read only under m.mu.
	var stopAfter func() bool
	sub = newSubscription(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if stopAfter != nil {
			stopAfter()
		}
		delete(m.subs[key], sub)
		if len(m.subs[key]) == 0 {
			delete(m.subs, key)
		}
		close(sub.updates)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subs[key] == nil {
		m.subs[key] = make(map[*Subscription]struct{})
	}
	m.subs[key][sub] = struct{}{}
	body, ok := m.docs[key]
	sub.deliver(Change{Key: key, Body: slices.Clone(body), Exists: ok})
	stopAfter = context.AfterFunc(ctx, sub.Close)
	return sub, nil
}

// Subscribers returns the number of open feeds for key. Used by tests to
// assert that Close releases the subscription.
func (m *MemoryDocumentStore) Subscribers(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[key])
}
