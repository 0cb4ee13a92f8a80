// Package feed opens change-feed subscriptions after checking that the
// caller may watch the requested topic.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

// Subscriber registers subscriptions on a topic. Implemented by *pubsub.Bus.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (*pubsub.Subscription, error)
}

// Filter gates topics on current store state. Checks run once, at
// subscribe time; an open subscription is never re-validated.
type Filter struct {
	store *store.Store
}

// NewFilter creates a filter reading from s.
func NewFilter(s *store.Store) *Filter {
	return &Filter{store: s}
}

// CheckPostSubscription always permits the post topic.
func (f *Filter) CheckPostSubscription(context.Context) error {
	return nil
}

// CheckCommentSubscription fails with NotFound unless postID names an
// existing, published post.
func (f *Filter) CheckCommentSubscription(ctx context.Context, postID string) error {
	return f.store.View(ctx, func(tx *store.Tx) error {
		post, err := tx.FindPostByID(ctx, postID)
		if errors.Is(err, store.ErrNotFound) || (err == nil && !post.Published) {
			return model.NewNotFound(model.KindPost, postID)
		}
		return err
	})
}

// Feed is the subscribe surface: a filter check followed by a bus subscription.
type Feed struct {
	filter *Filter
	bus    Subscriber
	logger *slog.Logger
}

// Option configures a Feed.
type Option func(*Feed)

// WithLogger sets the feed logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(f *Feed) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Feed checking against s and subscribing on bus.
func New(s *store.Store, bus Subscriber, opts ...Option) *Feed {
	f := &Feed{
		filter: NewFilter(s),
		bus:    bus,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SubscribePosts opens a subscription to post events.
func (f *Feed) SubscribePosts(ctx context.Context) (*pubsub.Subscription, error) {
	if err := f.filter.CheckPostSubscription(ctx); err != nil {
		return nil, fmt.Errorf("subscribe posts: %w", err)
	}
	return f.open(ctx, pubsub.PostTopic)
}

// SubscribeComments opens a subscription to comment events for one
// published post. The subscription outlives later changes to the post.
func (f *Feed) SubscribeComments(ctx context.Context, postID string) (*pubsub.Subscription, error) {
	if err := f.filter.CheckCommentSubscription(ctx, postID); err != nil {
		return nil, fmt.Errorf("subscribe comments: %w", err)
	}
	return f.open(ctx, pubsub.CommentTopic(postID))
}

func (f *Feed) open(ctx context.Context, topic string) (*pubsub.Subscription, error) {
	sub, err := f.bus.Subscribe(ctx, topic)
	if err != nil {
		return nil, err
	}
	f.logger.Info("subscription opened", "topic", topic, "subscription", sub.ID())
	return sub, nil
}
