package repo_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tripboard/internal/repo"
	"github.com/pkordes/tripboard/internal/repo/repotest"
)

func TestMemoryDocumentStore_Contract(t *testing.T) {
	repotest.RunDocumentStore(t, func(t *testing.T) repo.DocumentStore {
		return repo.NewMemoryDocumentStore()
	})
}

func TestMemoryDocumentStore_CloseReleasesSubscription(t *testing.T) {
	s := repo.NewMemoryDocumentStore()
	sub, err := s.Subscribe(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Subscribers("main"))

	sub.Close()
	assert.Equal(t, 0, s.Subscribers("main"))

	// Writes after Close must not panic on the closed channel.
	require.NoError(t, s.Set(context.Background(), "main", json.RawMessage(`{}`)))
}

func TestMemoryDocumentStore_GetReturnsCopy(t *testing.T) {
	s := repo.NewMemoryDocumentStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "main", json.RawMessage(`{"a":1}`)))

	got, err := s.Get(ctx, "main")
	require.NoError(t, err)
	got[2] = 'b'

	again, err := s.Get(ctx, "main")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(again))
}

func TestMemoryDocumentStore_CoalescesUnreadDeliveries(t *testing.T) {
	s := repo.NewMemoryDocumentStore()
	ctx := context.Background()
	sub, err := s.Subscribe(ctx, "main")
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, s.Set(ctx, "main", json.RawMessage(`{"n":1}`)))
	require.NoError(t, s.Set(ctx, "main", json.RawMessage(`{"n":2}`)))

	c := <-sub.Updates()
	assert.True(t, c.Exists)
	assert.JSONEq(t, `{"n":2}`, string(c.Body))
}

func TestMemoryDocumentStore_SubscribeWithDoneContext(t *testing.T) {
	s := repo.NewMemoryDocumentStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub, err := s.Subscribe(ctx, "main")
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for open := true; open; {
		select {
		case _, open = <-sub.Updates():
		case <-deadline:
			t.Fatal("feed on a done context never closed")
		}
	}
	assert.Equal(t, 0, s.Subscribers("main"))
	sub.Close()
}
