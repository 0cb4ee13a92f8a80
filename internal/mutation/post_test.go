package mutation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
)

func TestCreatePost_PublishedAnnouncesCreated(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@x.com")
	sub := f.subscribe(t, pubsub.PostTopic)

	p := f.post(t, u.ID, true)

	ev := next(t, sub)
	assert.Equal(t, pubsub.Created, ev.Mutation)
	assert.Equal(t, p, ev.Data)
	requireNoEvent(t, sub)
}

func TestCreatePost_DraftIsSilent(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@x.com")
	sub := f.subscribe(t, pubsub.PostTopic)

	p := f.post(t, u.ID, false)
	assert.Equal(t, u.ID, p.Author)
	requireNoEvent(t, sub)
}

func TestCreatePost_UnknownAuthor(t *testing.T) {
	f := newFixture(t)
	sub := f.subscribe(t, pubsub.PostTopic)

	_, err := f.engine.CreatePost(context.Background(), model.PostInput{Title: "t", Published: true, Author: "ghost"})
	require.Error(t, err)
	assert.True(t, model.IsInvalidReference(err))

	_, posts, _ := f.snapshot(t)
	assert.Empty(t, posts)
	requireNoEvent(t, sub)
}

func TestUpdatePost_Transitions(t *testing.T) {
	tests := []struct {
		name         string
		published    bool
		patch        model.PostPatch
		wantMutation pubsub.Mutation // "" means no event
		wantBefore   bool            // event carries the pre-update record
	}{
		{
			name:         "unpublish announces deleted snapshot",
			published:    true,
			patch:        model.PostPatch{Title: model.Some("new"), Published: model.Some(false)},
			wantMutation: pubsub.Deleted,
			wantBefore:   true,
		},
		{
			name:         "publish announces created",
			published:    false,
			patch:        model.PostPatch{Title: model.Some("new"), Published: model.Some(true)},
			wantMutation: pubsub.Created,
		},
		{
			name:      "unchanged published flag is silent",
			published: true,
			patch:     model.PostPatch{Title: model.Some("new"), Published: model.Some(true)},
		},
		{
			name:      "unchanged draft flag is silent",
			published: false,
			patch:     model.PostPatch{Published: model.Some(false)},
		},
		{
			name:         "edit of published post announces updated",
			published:    true,
			patch:        model.PostPatch{Title: model.Some("new"), Body: model.Some("b2")},
			wantMutation: pubsub.Updated,
		},
		{
			name:      "edit of draft is silent",
			published: false,
			patch:     model.PostPatch{Title: model.Some("new")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			u := f.user(t, "a@x.com")
			before := f.post(t, u.ID, tt.published)
			sub := f.subscribe(t, pubsub.PostTopic)

			after, err := f.engine.UpdatePost(context.Background(), before.ID, tt.patch)
			require.NoError(t, err)

			if title, ok := tt.patch.Title.Get(); ok {
				assert.Equal(t, title, after.Title)
			}
			if published, ok := tt.patch.Published.Get(); ok {
				assert.Equal(t, published, after.Published)
			}

			if tt.wantMutation == "" {
				requireNoEvent(t, sub)
				return
			}

			ev := next(t, sub)
			assert.Equal(t, tt.wantMutation, ev.Mutation)
			if tt.wantBefore {
				assert.Equal(t, before, ev.Data)
			} else {
				assert.Equal(t, after, ev.Data)
			}
			requireNoEvent(t, sub)
		})
	}
}

func TestUpdatePost_PersistsAndKeepsAuthor(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@x.com")
	p := f.post(t, u.ID, false)

	updated, err := f.engine.UpdatePost(context.Background(), p.ID, model.PostPatch{Body: model.Some("edited")})
	require.NoError(t, err)

	_, posts, _ := f.snapshot(t)
	require.Len(t, posts, 1)
	assert.Equal(t, updated, posts[0])
	assert.Equal(t, "title", posts[0].Title)
	assert.Equal(t, "edited", posts[0].Body)
	assert.Equal(t, u.ID, posts[0].Author)
}

func TestUpdatePost_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.UpdatePost(context.Background(), "missing", model.PostPatch{})
	assert.True(t, model.IsNotFound(err))
}

func TestDeletePost_CascadesComments(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@x.com")
	p := f.post(t, u.ID, true)
	other := f.post(t, u.ID, true)
	f.comment(t, p.ID, u.ID)
	f.comment(t, p.ID, u.ID)
	keep := f.comment(t, other.ID, u.ID)

	posts := f.subscribe(t, pubsub.PostTopic)
	comments := f.subscribe(t, pubsub.CommentTopic(p.ID))

	removed, err := f.engine.DeletePost(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, removed)

	_, ps, cs := f.snapshot(t)
	assert.Equal(t, []model.Post{other}, ps)
	assert.Equal(t, []model.Comment{keep}, cs)

	ev := next(t, posts)
	assert.Equal(t, pubsub.Deleted, ev.Mutation)
	assert.Equal(t, p, ev.Data)
	requireNoEvent(t, posts)
	requireNoEvent(t, comments)
}

func TestDeletePost_DraftIsSilent(t *testing.T) {
	f := newFixture(t)
	u := f.user(t, "a@x.com")
	p := f.post(t, u.ID, false)
	sub := f.subscribe(t, pubsub.PostTopic)

	_, err := f.engine.DeletePost(context.Background(), p.ID)
	require.NoError(t, err)
	requireNoEvent(t, sub)
}

func TestDeletePost_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.DeletePost(context.Background(), "missing")
	assert.True(t, model.IsNotFound(err))
}
