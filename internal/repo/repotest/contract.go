// Package repotest holds the DocumentStore contract suite. Every adapter
// test runs RunDocumentStore against its own backend, so all backends are
// held to the same observable behaviour.
package repotest

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
)

// DocumentStoreFactory returns a fresh store for one subtest.
type DocumentStoreFactory func(t *testing.T) repo.DocumentStore

// deliveryTimeout bounds how long a subtest waits on a change feed.
const deliveryTimeout = 5 * time.Second

// heldSubscriptions is how many feeds stay open while reads and writes run.
// It exceeds the smallest default Postgres pool size and the number of
// documents the API follows at once.
const heldSubscriptions = 6

// RunDocumentStore runs the full contract suite against newStore.
// Keys are random per subtest so suites may share one backing database.
func RunDocumentStore(t *testing.T, newStore DocumentStoreFactory) {
	t.Helper()

	t.Run("get missing returns not found", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), newKey())
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("set then get returns body", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := newKey()

		require.NoError(t, s.Set(ctx, key, json.RawMessage(`{"days":[{"id":"d1"}],"unassigned":[]}`)))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"days":[{"id":"d1"}],"unassigned":[]}`, string(got))
	})

	t.Run("set replaces the whole document", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := newKey()

		require.NoError(t, s.Set(ctx, key, json.RawMessage(`{"items":["a","b"],"extra":true}`)))
		require.NoError(t, s.Set(ctx, key, json.RawMessage(`{"items":["c"]}`)))
		got, err := s.Get(ctx, key)
		require.NoError(t, err)
		assert.JSONEq(t, `{"items":["c"]}`, string(got))
	})

	t.Run("set rejects invalid json", func(t *testing.T) {
		s := newStore(t)
		err := s.Set(context.Background(), newKey(), json.RawMessage(`{"items":`))
		require.Error(t, err)
	})

	t.Run("first delivery reports missing document", func(t *testing.T) {
		s := newStore(t)
		key := newKey()
		sub, err := s.Subscribe(context.Background(), key)
		require.NoError(t, err)
		t.Cleanup(sub.Close)

		c := next(t, sub)
		assert.Equal(t, key, c.Key)
		assert.False(t, c.Exists)
	})

	t.Run("first delivery is the current value", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := newKey()
		require.NoError(t, s.Set(ctx, key, json.RawMessage(`{"items":["x"]}`)))

		sub, err := s.Subscribe(ctx, key)
		require.NoError(t, err)
		t.Cleanup(sub.Close)

		c := next(t, sub)
		assert.True(t, c.Exists)
		assert.JSONEq(t, `{"items":["x"]}`, string(c.Body))
	})

	t.Run("writes are delivered to every subscriber", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := newKey()

		a, err := s.Subscribe(ctx, key)
		require.NoError(t, err)
		t.Cleanup(a.Close)
		b, err := s.Subscribe(ctx, key)
		require.NoError(t, err)
		t.Cleanup(b.Close)
		next(t, a)
		next(t, b)

		require.NoError(t, s.Set(ctx, key, json.RawMessage(`{"items":["y"]}`)))

		for _, sub := range []*repo.Subscription{a, b} {
			c := next(t, sub)
			assert.True(t, c.Exists)
			assert.JSONEq(t, `{"items":["y"]}`, string(c.Body))
		}
	})

	t.Run("writes to other keys are not delivered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key, other := newKey(), newKey()

		sub, err := s.Subscribe(ctx, key)
		require.NoError(t, err)
		t.Cleanup(sub.Close)
		next(t, sub)

		require.NoError(t, s.Set(ctx, other, json.RawMessage(`{"items":["other"]}`)))
		require.NoError(t, s.Set(ctx, key, json.RawMessage(`{"items":["mine"]}`)))

		c := next(t, sub)
		assert.Equal(t, key, c.Key)
		assert.JSONEq(t, `{"items":["mine"]}`, string(c.Body))
	})

	t.Run("the last write is always observed", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		key := newKey()

		sub, err := s.Subscribe(ctx, key)
		require.NoError(t, err)
		t.Cleanup(sub.Close)
		next(t, sub)

		for _, body := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
			require.NoError(t, s.Set(ctx, key, json.RawMessage(body)))
		}

		// Deliveries may coalesce; read until the final value arrives.
		deadline := time.After(deliveryTimeout)
		for {
			select {
			case c, ok := <-sub.Updates():
				require.True(t, ok, "feed closed before the last write was delivered")
				var got struct{ N int }
				require.NoError(t, json.Unmarshal(c.Body, &got))
				if got.N == 3 {
					return
				}
			case <-deadline:
				t.Fatal("timed out waiting for the last write")
			}
		}
	})

	t.Run("open subscriptions do not block reads and writes", func(t *testing.T) {
		s := newStore(t)
		keys := make([]string, heldSubscriptions)
		subs := make([]*repo.Subscription, heldSubscriptions)
		for i := range keys {
			keys[i] = newKey()
			sub, err := s.Subscribe(context.Background(), keys[i])
			require.NoError(t, err, "subscription %d", i)
			t.Cleanup(sub.Close)
			next(t, sub)
			subs[i] = sub
		}

		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		defer cancel()
		for i, key := range keys {
			require.NoError(t, s.Set(ctx, key, json.RawMessage(fmt.Sprintf(`{"n":%d}`, i))))
		}
		got, err := s.Get(ctx, keys[0])
		require.NoError(t, err)
		assert.JSONEq(t, `{"n":0}`, string(got))

		last := heldSubscriptions - 1
		c := next(t, subs[last])
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, last), string(c.Body))
	})

	t.Run("close ends the feed", func(t *testing.T) {
		s := newStore(t)
		sub, err := s.Subscribe(context.Background(), newKey())
		require.NoError(t, err)

		sub.Close()
		sub.Close()
		waitClosed(t, sub)
	})

	t.Run("cancelled context ends the feed", func(t *testing.T) {
		s := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		sub, err := s.Subscribe(ctx, newKey())
		require.NoError(t, err)
		t.Cleanup(sub.Close)

		cancel()
		waitClosed(t, sub)
	})
}

func newKey() string {
	return "test-" + uuid.NewString()
}

// next returns the next delivery or fails the test after deliveryTimeout.
func next(t *testing.T, sub *repo.Subscription) repo.Change {
	t.Helper()
	select {
	case c, ok := <-sub.Updates():
		require.True(t, ok, "feed closed unexpectedly")
		return c
	case <-time.After(deliveryTimeout):
		t.Fatal("timed out waiting for a delivery")
		return repo.Change{}
	}
}

// waitClosed drains sub until its channel is closed.
func waitClosed(t *testing.T, sub *repo.Subscription) {
	t.Helper()
	deadline := time.After(deliveryTimeout)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for the feed to close")
		}
	}
}
