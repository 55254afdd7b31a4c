// Package bus provides an identifier-filtered publish/subscribe channel.
//
// The native backend delivers every event for every player on a single
// channel per event kind; Bus demultiplexes those by the identifier
// embedded in each event, so subscribers only ever see events for the
// player they asked about. Delivery is FIFO per subscriber and
// non-blocking for publishers: a subscriber that stops draining its
// channel loses events rather than stalling the backend.
package bus

import (
	"sync"

	"github.com/mlaroche/polyplay/ident"
)

const subscriptionBuffer = 16

// Bus fans identifier-tagged values out to per-identifier subscriptions.
// Safe for concurrent publish, subscribe and unsubscribe.
type Bus[T any] struct {
	mu     sync.RWMutex
	subs   map[ident.ID][]*Subscription[T]
	closed bool
}

// New creates an empty bus.
func New[T any]() *Bus[T] {
	return &Bus[T]{
		subs: make(map[ident.ID][]*Subscription[T]),
	}
}

// Publish delivers v to every subscription filtered on id.
// Publishing on a closed bus is a no-op. Never blocks.
func (b *Bus[T]) Publish(id ident.ID, v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, s := range b.subs[id] {
		s.send(v)
	}
}

// Subscribe returns a live view of events tagged with id.
// The subscription is bound to the bus lifetime, not the caller's:
// it must be released with Close to avoid leaking.
// Subscribing on a closed bus returns an already-done subscription.
func (b *Bus[T]) Subscribe(id ident.ID) *Subscription[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := newSubscription[T](id)
	s.detach = func() { b.remove(s) }
	if b.closed {
		s.markDone()
		return s
	}
	b.subs[id] = append(b.subs[id], s)
	return s
}

// remove unlinks s from the subscriber list for its identifier.
func (b *Bus[T]) remove(s *Subscription[T]) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	list := b.subs[s.id]
	for i, cur := range list {
		if cur == s {
			b.subs[s.id] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(b.subs[s.id]) == 0 {
		delete(b.subs, s.id)
	}
}

// Close tears the bus down. Every live subscription observes Done and
// receives no further events; later publishes are silently dropped.
// Idempotent.
func (b *Bus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, list := range b.subs {
		for _, s := range list {
			s.markDone()
		}
	}
	b.subs = nil
}
