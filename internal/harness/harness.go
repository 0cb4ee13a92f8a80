package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/quill/internal/feed"
	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/mutation"
	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

// Harness executes scenario steps against its own store, bus, engine and feed.
type Harness struct {
	store  *store.Store
	bus    *pubsub.Bus
	engine *mutation.Engine
	feed   *feed.Feed
	logger *slog.Logger

	aliases map[string]string
	subs    []*namedSubscription
	step    int
}

type namedSubscription struct {
	name string
	sub  *pubsub.Subscription
}

type options struct {
	dsn     string
	ids     model.IDGenerator
	logger  *slog.Logger
	busOpts []pubsub.Option
}

// Option configures a scenario run.
type Option func(*options)

// WithDSN runs against the given database instead of a fresh in-memory one.
func WithDSN(dsn string) Option {
	return func(o *options) { o.dsn = dsn }
}

// WithIDGenerator replaces the sequential id-N generator.
func WithIDGenerator(g model.IDGenerator) Option {
	return func(o *options) { o.ids = g }
}

// WithLogger sets the logger for the run. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithBusOptions passes options to the run's event bus.
func WithBusOptions(opts ...pubsub.Option) Option {
	return func(o *options) { o.busOpts = append(o.busOpts, opts...) }
}

// Run executes a scenario and returns the result.
//
// Each run gets its own store (in-memory unless WithDSN is given), bus,
// engine and feed. An error is returned only when the scenario cannot be
// executed (bad arguments, unknown alias, store failure); failed
// expectations are reported in the Result.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{
		dsn:    store.MemoryDSN,
		ids:    model.NewSequenceGenerator("id"),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
	for _, opt := range opts {
		opt(&o)
	}

	st, err := store.Open(o.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	bus := pubsub.New(append([]pubsub.Option{pubsub.WithLogger(o.logger)}, o.busOpts...)...)
	defer bus.Close()

	h := &Harness{
		store:   st,
		bus:     bus,
		engine:  mutation.New(st, bus, mutation.WithIDGenerator(o.ids), mutation.WithLogger(o.logger)),
		feed:    feed.New(st, bus, feed.WithLogger(o.logger)),
		logger:  o.logger,
		aliases: make(map[string]string),
	}
	defer h.closeSubscriptions()

	result := NewResult()
	for _, step := range scenario.Steps {
		if err := h.executeStep(ctx, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", h.step, err)
		}
	}

	for _, msg := range h.evaluateAssertions(ctx, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep runs one step, records its outcome and the events it caused,
// and checks the step's expectations.
func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) error {
	h.step++

	out, err := h.dispatch(ctx, step)
	entry := TraceEntry{Type: EntryStep, Step: h.step, Op: step.Op}
	switch code := model.CodeOf(err); {
	case err == nil:
		entry.Result = out
	case code != "":
		entry.Error = string(code)
	default:
		return err
	}
	result.Trace = append(result.Trace, entry)

	events := h.drain()
	result.Trace = append(result.Trace, events...)

	h.logger.Info("step executed", "step", h.step, "op", step.Op, "error", entry.Error, "events", len(events))

	for _, msg := range h.checkExpect(step, entry, events) {
		result.AddError(fmt.Sprintf("step %d (%s): %s", h.step, step.Op, msg))
	}
	return nil
}

// dispatch performs the step. The returned value is the entity produced,
// or the subscription name for subscription ops.
func (h *Harness) dispatch(ctx context.Context, step Step) (any, error) {
	r := h.reader(step)

	var (
		out any
		err error
	)
	switch step.Op {
	case OpCreateUser:
		in := model.UserInput{Name: r.str("name"), Email: r.str("email"), Age: r.optInt("age").Value}
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.User](h, step)(h.engine.CreateUser(ctx, in))
	case OpUpdateUser:
		id := r.ref("id")
		patch := model.UserPatch{Name: r.optString("name"), Email: r.optString("email"), Age: r.optInt("age")}
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.User](h, step)(h.engine.UpdateUser(ctx, id, patch))
	case OpDeleteUser:
		id := r.ref("id")
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.User](h, step)(h.engine.DeleteUser(ctx, id))
	case OpCreatePost:
		in := model.PostInput{
			Title:     r.str("title"),
			Body:      r.str("body"),
			Published: r.optBool("published").Value,
			Author:    r.ref("author"),
		}
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.Post](h, step)(h.engine.CreatePost(ctx, in))
	case OpUpdatePost:
		id := r.ref("id")
		patch := model.PostPatch{Title: r.optString("title"), Body: r.optString("body"), Published: r.optBool("published")}
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.Post](h, step)(h.engine.UpdatePost(ctx, id, patch))
	case OpDeletePost:
		id := r.ref("id")
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.Post](h, step)(h.engine.DeletePost(ctx, id))
	case OpCreateComment:
		in := model.CommentInput{Text: r.str("text"), Post: r.ref("post"), Author: r.ref("author")}
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.Comment](h, step)(h.engine.CreateComment(ctx, in))
	case OpUpdateComment:
		id := r.ref("id")
		patch := model.CommentPatch{Text: r.optString("text")}
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.Comment](h, step)(h.engine.UpdateComment(ctx, id, patch))
	case OpDeleteComment:
		id := r.ref("id")
		if r.err != nil {
			return nil, r.err
		}
		out, err = record[model.Comment](h, step)(h.engine.DeleteComment(ctx, id))
	case OpSubscribePosts:
		out, err = h.subscriber(step)(h.feed.SubscribePosts(ctx))
	case OpSubscribeComments:
		postID := r.ref("post")
		if r.err != nil {
			return nil, r.err
		}
		out, err = h.subscriber(step)(h.feed.SubscribeComments(ctx, postID))
	case OpUnsubscribe:
		out, err = h.unsubscribe(step)
	default:
		return nil, fmt.Errorf("unknown op %q", step.Op)
	}
	return out, err
}

// record returns a function that records the entity id under the step
// alias and yields the entity as the step result.
func record[T model.Entity](h *Harness, step Step) func(T, error) (any, error) {
	return func(entity T, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		if step.As != "" {
			h.aliases[step.As] = entity.EntityID()
		}
		return entity, nil
	}
}

// subscriber returns a function that registers the subscription under the
// step alias, or sub-N when none is given.
func (h *Harness) subscriber(step Step) func(*pubsub.Subscription, error) (any, error) {
	return func(sub *pubsub.Subscription, err error) (any, error) {
		if err != nil {
			return nil, err
		}
		name := step.As
		if name == "" {
			name = fmt.Sprintf("sub-%d", h.step)
		}
		h.subs = append(h.subs, &namedSubscription{name: name, sub: sub})
		return name, nil
	}
}

func (h *Harness) unsubscribe(step Step) (any, error) {
	name, ok := step.Args["subscription"].(string)
	if !ok {
		return nil, fmt.Errorf("%s: subscription is required", step.Op)
	}
	for i, ns := range h.subs {
		if ns.name == name {
			h.close(ns)
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return name, nil
		}
	}
	return nil, fmt.Errorf("%s: unknown subscription %q", step.Op, name)
}

// drain collects every event already queued on open subscriptions, in
// subscription order. Publishing completes before a mutation returns, so
// nothing caused by the last step is still in flight.
func (h *Harness) drain() []TraceEntry {
	var out []TraceEntry
	for _, ns := range h.subs {
		for {
			var (
				ev pubsub.Event
				ok bool
			)
			select {
			case ev, ok = <-ns.sub.Events():
			default:
			}
			if !ok {
				break
			}
			out = append(out, TraceEntry{
				Type:         EntryEvent,
				Subscription: ns.name,
				Mutation:     ev.Mutation,
				Data:         ev.Data,
			})
		}
	}
	return out
}

func (h *Harness) closeSubscriptions() {
	for _, ns := range h.subs {
		h.close(ns)
	}
	h.subs = nil
}

func (h *Harness) close(ns *namedSubscription) {
	ns.sub.Close()
	h.logger.Debug("subscription closed", "subscription", ns.name, "topic", ns.sub.Topic(), "dropped", ns.sub.Dropped())
}
