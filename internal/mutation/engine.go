package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

// Publisher receives the events produced by committed mutations.
// Implemented by *pubsub.Bus.
type Publisher interface {
	Publish(topic string, ev pubsub.Event) int
}

// Engine applies mutations to a store and announces them on a publisher.
//
// Thread-safety: all methods are safe for concurrent use; mutations are
// serialized internally.
type Engine struct {
	mu     sync.Mutex
	store  *store.Store
	bus    Publisher
	ids    model.IDGenerator
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDGenerator overrides the UUIDv7 id generator (for tests and golden traces).
func WithIDGenerator(g model.IDGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.ids = g
		}
	}
}

// WithLogger sets the engine logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine writing to s and publishing to bus.
func New(s *store.Store, bus Publisher, opts ...Option) *Engine {
	e := &Engine{
		store:  s,
		bus:    bus,
		ids:    model.UUIDGenerator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// notice is an event waiting for its mutation to commit.
type notice struct {
	topic string
	event pubsub.Event
}

func postNotice(m pubsub.Mutation, p model.Post) []notice {
	return []notice{{topic: pubsub.PostTopic, event: pubsub.Event{Mutation: m, Data: p}}}
}

func commentNotice(m pubsub.Mutation, c model.Comment) []notice {
	return []notice{{topic: pubsub.CommentTopic(c.Post), event: pubsub.Event{Mutation: m, Data: c}}}
}

// apply runs fn in one store transaction and, once it has committed,
// publishes the notices fn returned. Publishing happens under the engine
// lock so subscribers observe events in mutation order.
func (e *Engine) apply(ctx context.Context, op string, fn func(tx *store.Tx) ([]notice, error)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var notices []notice
	err := e.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		notices, err = fn(tx)
		return err
	})
	if err != nil {
		e.logger.Debug("mutation rejected", "op", op, "error", err)
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, n := range notices {
		delivered := e.bus.Publish(n.topic, n.event)
		e.logger.Debug("event published",
			"op", op,
			"topic", n.topic,
			"mutation", n.event.Mutation,
			"id", n.event.Data.EntityID(),
			"delivered", delivered,
		)
	}
	return nil
}

// notFound converts a store miss into the domain error for kind/id.
func notFound(err error, kind model.EntityKind, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return model.NewNotFound(kind, id)
	}
	return err
}

// exists reports whether err is nil, treating a store miss as false and
// passing every other error through.
func exists(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
