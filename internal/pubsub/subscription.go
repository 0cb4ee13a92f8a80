package pubsub

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// Subscription is one subscriber's live view of a topic.
type Subscription struct {
	id    int64
	topic string
	ch    chan Event

	// mu serializes offers so drop-oldest eviction cannot reorder events.
	mu      sync.Mutex
	dropped atomic.Uint64

	cancel context.CancelFunc
	bus    *Bus

	// detached is guarded by bus.mu.
	detached bool
}

// ID returns the bus-unique subscription id.
func (s *Subscription) ID() int64 { return s.id }

// Topic returns the subscribed topic.
func (s *Subscription) Topic() string { return s.topic }

// Events returns the delivery channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan Event { return s.ch }

// All returns a lazy sequence over delivered events. The sequence ends when
// the subscription ends; breaking out of the loop does not end it.
func (s *Subscription) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for ev := range s.ch {
			if !yield(ev) {
				return
			}
		}
	}
}

// Dropped returns how many events this subscriber lost to backpressure.
func (s *Subscription) Dropped() uint64 { return s.dropped.Load() }

// Close detaches the subscription. When Close returns no further events
// will be delivered. Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
	s.bus.detach(s)
}

// offer applies the backpressure policy. Reports whether ev was queued.
// Called with bus.mu read-locked, so ch is open.
func (s *Subscription) offer(ev Event, policy Backpressure) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case s.ch <- ev:
		return true
	default:
	}

	if policy != DropOldest {
		s.dropped.Add(1)
		return false
	}

	select {
	case <-s.ch:
		s.dropped.Add(1)
	default:
	}

	select {
	case s.ch <- ev:
		return true
	default:
		s.dropped.Add(1)
		return false
	}
}
