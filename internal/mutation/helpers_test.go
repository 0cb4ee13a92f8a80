package mutation

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

type fixture struct {
	engine *Engine
	store  *store.Store
	bus    *pubsub.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureAt(t, store.MemoryDSN)
}

// newFixtureAt opens the store at dsn, e.g. a file another connection can
// also reach.
func newFixtureAt(t *testing.T, dsn string) *fixture {
	t.Helper()

	st, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := pubsub.New(pubsub.WithLogger(logger))
	t.Cleanup(bus.Close)

	eng := New(st, bus,
		WithIDGenerator(model.NewSequenceGenerator("id")),
		WithLogger(logger),
	)
	return &fixture{engine: eng, store: st, bus: bus}
}

func (f *fixture) subscribe(t *testing.T, topic string) *pubsub.Subscription {
	t.Helper()
	sub, err := f.bus.Subscribe(context.Background(), topic)
	require.NoError(t, err)
	t.Cleanup(sub.Close)
	return sub
}

func (f *fixture) user(t *testing.T, email string) model.User {
	t.Helper()
	u, err := f.engine.CreateUser(context.Background(), model.UserInput{Name: "user " + email, Email: email})
	require.NoError(t, err)
	return u
}

func (f *fixture) post(t *testing.T, author string, published bool) model.Post {
	t.Helper()
	p, err := f.engine.CreatePost(context.Background(), model.PostInput{
		Title:     "title",
		Body:      "body",
		Published: published,
		Author:    author,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) comment(t *testing.T, post, author string) model.Comment {
	t.Helper()
	c, err := f.engine.CreateComment(context.Background(), model.CommentInput{Text: "text", Post: post, Author: author})
	require.NoError(t, err)
	return c
}

// snapshot returns every row of every collection.
func (f *fixture) snapshot(t *testing.T) ([]model.User, []model.Post, []model.Comment) {
	t.Helper()
	var (
		us []model.User
		ps []model.Post
		cs []model.Comment
	)
	ctx := context.Background()
	err := f.store.View(ctx, func(tx *store.Tx) error {
		var err error
		if us, err = tx.FindUsers(ctx); err != nil {
			return err
		}
		if ps, err = tx.FindPosts(ctx); err != nil {
			return err
		}
		cs, err = tx.FindComments(ctx)
		return err
	})
	require.NoError(t, err)
	return us, ps, cs
}

// next waits for one event. Publishing is synchronous with the mutation,
// so the event is already queued when the mutation returns.
func next(t *testing.T, sub *pubsub.Subscription) pubsub.Event {
	t.Helper()
	select {
	case ev := <-sub.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return pubsub.Event{}
	}
}

func requireNoEvent(t *testing.T, sub *pubsub.Subscription) {
	t.Helper()
	select {
	case ev := <-sub.Events():
		t.Fatalf("unexpected event %s %+v", ev.Mutation, ev.Data)
	default:
	}
}

func intPtr(v int) *int { return &v }
