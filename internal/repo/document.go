// Package repo contains all remote document storage for the Tripboard API.
// Every backend implements DocumentStore: whole-document reads and replaces
// keyed by a fixed document id, plus a realtime change subscription.
// No business logic lives here; documents are opaque JSON.
package repo

import (
	"context"
	"encoding/json"
	"sync"
)

// DocumentStore is the remote document database the services sync against.
// The service layer depends on this interface, not on a concrete backend,
// which allows the services to be unit-tested with a mock.
type DocumentStore interface {
	// Get returns the current body of the document.
	// Returns domain.ErrNotFound if the document does not exist.
	Get(ctx context.Context, key string) (json.RawMessage, error)

	// Set replaces the whole document. There is no partial patch. Every
	// successful Set is followed by a Change on all subscriptions to key.
	Set(ctx context.Context, key string, body json.RawMessage) error

	// Subscribe opens a realtime feed for one document. The first delivery
	// is the current value (Exists=false if the document is missing); every
	// later delivery follows a committed write, in commit order. The feed
	// ends when ctx is done or the subscription is closed.
	Subscribe(ctx context.Context, key string) (*Subscription, error)
}

// Change is one delivery on a Subscription.
type Change struct {
	Key    string
	Body   json.RawMessage
	Exists bool
}

// Subscription is a cancellable handle on a document's change feed.
//
// Deliveries coalesce: the feed holds at most one pending Change, and a
// newer Change replaces an unread one. A slow reader therefore skips
// intermediate states but always sees the latest.
type Subscription struct {
	updates chan Change
	stop    func()
	once    sync.Once
}

func newSubscription(stop func()) *Subscription {
	return &Subscription{
		updates: make(chan Change, 1),
		stop:    stop,
	}
}

// Updates returns the delivery channel. It is closed when the feed ends.
func (s *Subscription) Updates() <-chan Change {
	return s.updates
}

// Close ends the feed and releases its resources. Safe to call repeatedly.
func (s *Subscription) Close() {
	s.once.Do(s.stop)
}

// deliver hands c to the reader, replacing any unread Change.
// Callers must serialize deliver calls for a given subscription.
func (s *Subscription) deliver(c Change) {
	for {
		select {
		case s.updates <- c:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
