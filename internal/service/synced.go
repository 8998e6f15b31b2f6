package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/tripboard/internal/domain"
	"github.com/pkordes/tripboard/internal/repo"
)

// resubscribeDelay is how long a synced document waits before reopening a
// change feed that ended without being closed.
const resubscribeDelay = time.Second

// syncedDoc keeps a typed local copy of one remote document in step with the
// store. Local updates are applied optimistically before the write; remote
// deliveries replace the local value wholesale (last writer wins).
type syncedDoc[T any] struct {
	store repo.DocumentStore
	key   string
	log   *slog.Logger
	seed  func() T
	clone func(T) T

	// mu serializes local updates and remote applies, so listeners observe
	// values in the order they were applied.
	mu        sync.Mutex
	cur       T
	listeners []func(T)
	// writes counts local writes; synced is its value at the last remote
	// apply. When they differ, a delivery may predate a local write and the
	// document is re-read instead.
	writes uint64
	synced uint64

	cancel context.CancelFunc
	done   chan struct{}
}

func newSyncedDoc[T any](store repo.DocumentStore, key string, log *slog.Logger, seed func() T, clone func(T) T) *syncedDoc[T] {
	return &syncedDoc[T]{
		store: store,
		key:   key,
		log:   log.With("doc", key),
		seed:  seed,
		clone: clone,
		cur:   clone(seed()),
	}
}

// start subscribes, applies the current value (seeding the document when
// missing) and then follows remote deliveries in the background until close.
func (d *syncedDoc[T]) start(ctx context.Context) error {
	feedCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	sub, err := d.store.Subscribe(feedCtx, d.key)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribe %s: %w", d.key, err)
	}

	select {
	case c, ok := <-sub.Updates():
		if !ok {
			cancel()
			sub.Close()
			return fmt.Errorf("subscribe %s: feed closed before first delivery", d.key)
		}
		if err := d.receive(ctx, c); err != nil {
			cancel()
			sub.Close()
			return err
		}
	case <-ctx.Done():
		cancel()
		sub.Close()
		return ctx.Err()
	}

	d.cancel = cancel
	d.done = make(chan struct{})
	go d.follow(feedCtx, sub)
	return nil
}

// follow applies deliveries until ctx is done, reopening the feed when the
// store ends it on its own.
func (d *syncedDoc[T]) follow(ctx context.Context, sub *repo.Subscription) {
	defer close(d.done)
	for {
		for c := range sub.Updates() {
			if err := d.receive(ctx, c); err != nil {
				d.log.Error("apply remote change", "error", err)
			}
		}
		sub.Close()
		if ctx.Err() != nil {
			return
		}

		d.log.Warn("change feed ended; resubscribing")
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(resubscribeDelay):
			}
			var err error
			sub, err = d.store.Subscribe(ctx, d.key)
			if err == nil {
				break
			}
			d.log.Error("resubscribe failed", "error", err)
		}
	}
}

// receive applies one delivery. A missing document is re-seeded; an
// undecodable one is logged and skipped.
func (d *syncedDoc[T]) receive(ctx context.Context, c repo.Change) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.writes != d.synced {
		d.synced = d.writes
		body, err := d.store.Get(ctx, d.key)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			c = repo.Change{Key: d.key}
		case err != nil:
			return fmt.Errorf("reload %s: %w", d.key, err)
		default:
			c = repo.Change{Key: d.key, Body: body, Exists: true}
		}
	}

	if !c.Exists {
		return d.reseedLocked(ctx)
	}
	var v T
	if err := json.Unmarshal(c.Body, &v); err != nil {
		d.log.Warn("skipping undecodable delivery", "error", err)
		return nil
	}
	d.setLocked(v)
	return nil
}

// reseedLocked applies the default value and writes it.
func (d *syncedDoc[T]) reseedLocked(ctx context.Context) error {
	v := d.seed()
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode seed %s: %w", d.key, err)
	}
	d.setLocked(v)
	err = d.store.Set(ctx, d.key, body)
	d.writes++
	if err != nil {
		return fmt.Errorf("seed %s: %w", d.key, err)
	}
	d.log.Info("seeded missing document")
	return nil
}

func (d *syncedDoc[T]) setLocked(v T) {
	d.cur = d.clone(v)
	for _, fn := range d.listeners {
		fn(d.clone(d.cur))
	}
}

// update computes the next value from the current one, applies it locally
// and writes it. If fn fails nothing changes. If the write fails the local
// value stays applied and the returned error wraps domain.ErrWriteFailed.
func (d *syncedDoc[T]) update(ctx context.Context, fn func(cur T) (T, error)) (T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var zero T
	next, err := fn(d.clone(d.cur))
	if err != nil {
		return zero, err
	}
	body, err := json.Marshal(next)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", d.key, err)
	}

	d.setLocked(next)
	err = d.store.Set(ctx, d.key, body)
	d.writes++
	if err != nil {
		d.log.Error("document write failed; keeping local state", "error", err)
		return d.clone(d.cur), fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
	}
	return d.clone(d.cur), nil
}

// value returns a deep copy of the current value.
func (d *syncedDoc[T]) value() T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clone(d.cur)
}

// onChange registers fn to be called with every applied value, local or
// remote. fn runs while the document is locked and must not call back into it.
func (d *syncedDoc[T]) onChange(fn func(T)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// close stops following remote changes and waits for the follower to exit.
func (d *syncedDoc[T]) close() {
	if d.cancel == nil {
		return
	}
	d.cancel()
	<-d.done
}
