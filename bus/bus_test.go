package bus

import (
	"math/rand"
	"sync"
	"testing"
	"testing/synctest"

	"github.com/mlaroche/polyplay/ident"
)

func TestSubscribe_ReceivesOwnEvents(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		b := New[int]()
		defer b.Close()

		id := ident.New()
		sub := b.Subscribe(id)
		defer sub.Close()

		b.Publish(id, 42)

		if got := <-sub.C; got != 42 {
			t.Errorf("received %d, want 42", got)
		}
	})
}

func TestPublish_NoCrossDelivery(t *testing.T) {
	b := New[int]()
	defer b.Close()

	id1 := ident.New()
	id2 := ident.New()
	sub1 := b.Subscribe(id1)
	sub2 := b.Subscribe(id2)
	defer sub1.Close()
	defer sub2.Close()

	// Interleave events for both identifiers in random order; nothing
	// tagged id1 may ever show up on sub2 and vice versa.
	rng := rand.New(rand.NewSource(1))
	sent1, sent2 := 0, 0
	for range 1000 {
		if rng.Intn(2) == 0 {
			b.Publish(id1, 1)
			sent1++
		} else {
			b.Publish(id2, 2)
			sent2++
		}
		// Drain as we go so the buffers never overflow.
		select {
		case v := <-sub1.C:
			if v != 1 {
				t.Fatalf("sub1 received %d, want only 1", v)
			}
		default:
		}
		select {
		case v := <-sub2.C:
			if v != 2 {
				t.Fatalf("sub2 received %d, want only 2", v)
			}
		default:
		}
	}

	for {
		select {
		case v := <-sub1.C:
			if v != 1 {
				t.Fatalf("sub1 received %d, want only 1", v)
			}
		case v := <-sub2.C:
			if v != 2 {
				t.Fatalf("sub2 received %d, want only 2", v)
			}
		default:
			return
		}
	}
}

func TestPublish_FIFOPerSubscriber(t *testing.T) {
	b := New[int]()
	defer b.Close()

	id := ident.New()
	sub := b.Subscribe(id)
	defer sub.Close()

	for i := range subscriptionBuffer {
		b.Publish(id, i)
	}
	for i := range subscriptionBuffer {
		if got := <-sub.C; got != i {
			t.Fatalf("event %d out of order: got %d", i, got)
		}
	}
}

func TestPublish_DropsWhenFull(t *testing.T) {
	b := New[int]()
	defer b.Close()

	id := ident.New()
	sub := b.Subscribe(id)
	defer sub.Close()

	// Overfill: nothing may block or panic.
	for i := range subscriptionBuffer + 5 {
		b.Publish(id, i)
	}

	count := 0
	for {
		select {
		case <-sub.C:
			count++
		default:
			if count != subscriptionBuffer {
				t.Errorf("received %d events, want %d (buffer size)", count, subscriptionBuffer)
			}
			return
		}
	}
}

func TestSubscription_Close_Unsubscribes(t *testing.T) {
	b := New[int]()
	defer b.Close()

	id := ident.New()
	sub := b.Subscribe(id)
	sub.Close()

	<-sub.Done // must be closed

	b.Publish(id, 1)
	select {
	case v := <-sub.C:
		t.Errorf("received %d after Close", v)
	default:
	}
}

func TestBus_Close_SignalsAllSubscribers(t *testing.T) {
	synctest.Test(t, func(_ *testing.T) {
		b := New[int]()
		sub1 := b.Subscribe(ident.New())
		sub2 := b.Subscribe(ident.New())

		b.Close()

		<-sub1.Done
		<-sub2.Done
	})
}

func TestBus_PublishAfterClose_Dropped(t *testing.T) {
	b := New[int]()
	id := ident.New()
	sub := b.Subscribe(id)

	b.Close()
	b.Publish(id, 1)

	select {
	case v := <-sub.C:
		t.Errorf("received %d after bus close", v)
	default:
	}
}

func TestBus_SubscribeAfterClose_AlreadyDone(t *testing.T) {
	b := New[int]()
	b.Close()

	sub := b.Subscribe(ident.New())
	<-sub.Done

	// Close on an already-done subscription must not panic.
	sub.Close()
}

func TestBus_ConcurrentPublishSubscribe(t *testing.T) {
	b := New[int]()
	defer b.Close()

	ids := make([]ident.ID, 8)
	for i := range ids {
		ids[i] = ident.New()
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(2)
		go func(id ident.ID) {
			defer wg.Done()
			for range 100 {
				b.Publish(id, 1)
			}
		}(id)
		go func(id ident.ID) {
			defer wg.Done()
			for range 100 {
				sub := b.Subscribe(id)
				sub.Close()
			}
		}(id)
	}
	wg.Wait()
}
