package bus

import (
	"sync"

	"github.com/mlaroche/polyplay/ident"
)

// Subscription is a filtered view over a Bus restricted to one identifier.
type Subscription[T any] struct {
	// C receives events tagged with this subscription's identifier.
	C <-chan T
	// Done is closed when the subscription is closed or the bus shuts down.
	Done <-chan struct{}

	id     ident.ID
	ch     chan T
	done   chan struct{}
	once   sync.Once
	detach func()
}

func newSubscription[T any](id ident.ID) *Subscription[T] {
	s := &Subscription[T]{
		id:   id,
		ch:   make(chan T, subscriptionBuffer),
		done: make(chan struct{}),
	}
	s.C = s.ch
	s.Done = s.done
	return s
}

// ID returns the identifier this subscription is filtered on.
func (s *Subscription[T]) ID() ident.ID {
	return s.id
}

// Close unsubscribes from the bus and signals Done. Idempotent.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.detach()
		close(s.done)
	})
}

// markDone is called by the bus on shutdown; the bus already holds its
// lock, so detach must not run here.
func (s *Subscription[T]) markDone() {
	s.once.Do(func() {
		close(s.done)
	})
}

// send delivers v without blocking, dropping it if the buffer is full.
func (s *Subscription[T]) send(v T) {
	select {
	case s.ch <- v:
	default:
		// Drop if buffer full
	}
}
