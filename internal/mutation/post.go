package mutation

import (
	"context"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

// CreatePost inserts a new post. Fails with InvalidReference if the author
// does not exist. A post created published is announced as CREATED.
func (e *Engine) CreatePost(ctx context.Context, in model.PostInput) (model.Post, error) {
	var post model.Post
	err := e.apply(ctx, "create post", func(tx *store.Tx) ([]notice, error) {
		ok, err := exists(findErr(tx.FindUserByID(ctx, in.Author)))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, model.NewInvalidReference(model.KindPost, "user not found")
		}

		post = model.Post{
			ID:        e.ids.Generate(),
			Title:     in.Title,
			Body:      in.Body,
			Published: in.Published,
			Author:    in.Author,
		}
		if err := tx.InsertPost(ctx, post); err != nil {
			return nil, err
		}

		if post.Published {
			return postNotice(pubsub.Created, post), nil
		}
		return nil, nil
	})
	if err != nil {
		return model.Post{}, err
	}

	e.logger.Info("post created", "id", post.ID, "published", post.Published)
	return post, nil
}

// UpdatePost overwrites the fields set in patch and classifies the change:
//
//   - published true -> false: DELETED with the record before the update
//   - published false -> true: CREATED with the updated record
//   - published supplied but unchanged: no event
//   - published not supplied, post published: UPDATED with the updated record
func (e *Engine) UpdatePost(ctx context.Context, id string, patch model.PostPatch) (model.Post, error) {
	var post model.Post
	err := e.apply(ctx, "update post", func(tx *store.Tx) ([]notice, error) {
		before, err := tx.FindPostByID(ctx, id)
		if err != nil {
			return nil, notFound(err, model.KindPost, id)
		}

		post = before
		if title, ok := patch.Title.Get(); ok {
			post.Title = title
		}
		if body, ok := patch.Body.Get(); ok {
			post.Body = body
		}

		var notices []notice
		if published, ok := patch.Published.Get(); ok {
			post.Published = published
			switch {
			case before.Published && !published:
				notices = postNotice(pubsub.Deleted, before)
			case !before.Published && published:
				notices = postNotice(pubsub.Created, post)
			}
		} else if post.Published {
			notices = postNotice(pubsub.Updated, post)
		}

		if err := tx.SavePost(ctx, post); err != nil {
			return nil, err
		}
		return notices, nil
	})
	if err != nil {
		return model.Post{}, err
	}

	e.logger.Info("post updated", "id", post.ID, "published", post.Published)
	return post, nil
}

// DeletePost removes a post and its comments. Only the post itself is
// announced, and only if it was published.
func (e *Engine) DeletePost(ctx context.Context, id string) (model.Post, error) {
	var (
		post            model.Post
		commentsRemoved int
	)
	err := e.apply(ctx, "delete post", func(tx *store.Tx) ([]notice, error) {
		var err error
		post, err = tx.RemovePostByID(ctx, id)
		if err != nil {
			return nil, notFound(err, model.KindPost, id)
		}

		commentsRemoved, err = removeComments(ctx, tx, store.Eq("post", id))
		if err != nil {
			return nil, err
		}

		if post.Published {
			return postNotice(pubsub.Deleted, post), nil
		}
		return nil, nil
	})
	if err != nil {
		return model.Post{}, err
	}

	e.logger.Info("post deleted", "id", post.ID, "comments_removed", commentsRemoved)
	return post, nil
}

// findErr discards a lookup result, keeping only its error.
func findErr[T any](_ T, err error) error {
	return err
}
