package pubsub

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultBuffer is the per-subscriber queue capacity.
const DefaultBuffer = 64

// Backpressure selects what a full subscriber queue gives up.
type Backpressure string

const (
	// DropNewest discards the event being published.
	DropNewest Backpressure = "drop_newest"
	// DropOldest evicts the oldest queued event to make room.
	DropOldest Backpressure = "drop_oldest"
)

// ErrBusClosed is returned by Subscribe after Close.
var ErrBusClosed = errors.New("pubsub: bus closed")

// Bus maps topic names to their active subscriptions.
//
// Thread-safety: all methods are safe for concurrent use.
type Bus struct {
	mu     sync.RWMutex
	nextID int64
	closed bool
	topics map[string]map[int64]*Subscription

	buffer       int
	backpressure Backpressure
	logger       *slog.Logger
}

// Option configures a Bus.
type Option func(*Bus)

// WithBuffer sets the per-subscriber queue capacity. Values below 1 are ignored.
func WithBuffer(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithBackpressure sets the policy applied when a subscriber queue is full.
func WithBackpressure(p Backpressure) Option {
	return func(b *Bus) {
		if p != "" {
			b.backpressure = p
		}
	}
}

// WithLogger sets the logger used to report dropped events.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	b := &Bus{
		topics:       make(map[string]map[int64]*Subscription),
		buffer:       DefaultBuffer,
		backpressure: DropNewest,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish queues ev for every subscriber of topic and returns how many
// subscribers accepted it. It never blocks on a subscriber: a full queue
// costs that subscriber an event, never the publisher.
func (b *Bus) Publish(topic string, ev Event) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return 0
	}

	delivered := 0
	for _, sub := range b.topics[topic] {
		if sub.offer(ev, b.backpressure) {
			delivered++
			continue
		}
		b.logger.Warn("subscriber queue full, event dropped",
			"topic", topic,
			"subscription", sub.id,
			"mutation", ev.Mutation,
			"backpressure", b.backpressure,
		)
	}
	return delivered
}

// Subscribe registers a new subscription on topic. The subscription ends
// when Close is called, when ctx is cancelled, or when the bus is closed;
// in every case its Events channel is closed.
func (b *Bus) Subscribe(ctx context.Context, topic string) (*Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	subCtx, cancel := context.WithCancel(ctx)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("subscribe %s: %w", topic, ErrBusClosed)
	}
	b.nextID++
	sub := &Subscription{
		id:     b.nextID,
		topic:  topic,
		ch:     make(chan Event, b.buffer),
		cancel: cancel,
		bus:    b,
	}
	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[int64]*Subscription)
		b.topics[topic] = subs
	}
	subs[sub.id] = sub
	b.mu.Unlock()

	go func() {
		<-subCtx.Done()
		b.detach(sub)
	}()

	b.logger.Debug("subscribed", "topic", topic, "subscription", sub.id)
	return sub, nil
}

// Subscribers returns the number of active subscriptions on topic.
func (b *Bus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

// Close ends every subscription and turns later publishes into no-ops.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	var subs []*Subscription
	for _, topicSubs := range b.topics {
		for _, sub := range topicSubs {
			b.detachLocked(sub)
			subs = append(subs, sub)
		}
	}
	b.topics = make(map[string]map[int64]*Subscription)
	b.mu.Unlock()

	// Release watcher goroutines.
	for _, sub := range subs {
		sub.cancel()
	}
}

func (b *Bus) detach(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.detachLocked(sub)
}

// detachLocked removes sub from its topic and closes its channel.
// Publishers send only while holding the read lock, so closing under the
// write lock cannot race a send.
func (b *Bus) detachLocked(sub *Subscription) {
	if sub.detached {
		return
	}
	sub.detached = true

	if subs, ok := b.topics[sub.topic]; ok {
		delete(subs, sub.id)
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
	close(sub.ch)
	b.logger.Debug("unsubscribed", "topic", sub.topic, "subscription", sub.id)
}
