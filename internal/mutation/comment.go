package mutation

import (
	"context"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

// CreateComment inserts a comment on a published post and announces it on
// the post's comment topic. Fails with InvalidReference if the author is
// unknown or the post is missing or unpublished.
func (e *Engine) CreateComment(ctx context.Context, in model.CommentInput) (model.Comment, error) {
	var comment model.Comment
	err := e.apply(ctx, "create comment", func(tx *store.Tx) ([]notice, error) {
		userOK, err := exists(findErr(tx.FindUserByID(ctx, in.Author)))
		if err != nil {
			return nil, err
		}
		post, err := tx.FindPostByID(ctx, in.Post)
		postOK, err := exists(err)
		if err != nil {
			return nil, err
		}
		if !userOK || !postOK || !post.Published {
			return nil, model.NewInvalidReference(model.KindComment, "unable to find user and post")
		}

		comment = model.Comment{
			ID:     e.ids.Generate(),
			Text:   in.Text,
			Post:   in.Post,
			Author: in.Author,
		}
		if err := tx.InsertComment(ctx, comment); err != nil {
			return nil, err
		}
		return commentNotice(pubsub.Created, comment), nil
	})
	if err != nil {
		return model.Comment{}, err
	}

	e.logger.Info("comment created", "id", comment.ID, "post", comment.Post)
	return comment, nil
}

// UpdateComment overwrites the text if set. It always announces UPDATED,
// even when nothing changed.
func (e *Engine) UpdateComment(ctx context.Context, id string, patch model.CommentPatch) (model.Comment, error) {
	var comment model.Comment
	err := e.apply(ctx, "update comment", func(tx *store.Tx) ([]notice, error) {
		var err error
		comment, err = tx.FindCommentByID(ctx, id)
		if err != nil {
			return nil, notFound(err, model.KindComment, id)
		}

		if text, ok := patch.Text.Get(); ok {
			comment.Text = text
		}

		if err := tx.SaveComment(ctx, comment); err != nil {
			return nil, err
		}
		return commentNotice(pubsub.Updated, comment), nil
	})
	if err != nil {
		return model.Comment{}, err
	}

	e.logger.Info("comment updated", "id", comment.ID)
	return comment, nil
}

// DeleteComment removes a comment and announces it as DELETED.
func (e *Engine) DeleteComment(ctx context.Context, id string) (model.Comment, error) {
	var comment model.Comment
	err := e.apply(ctx, "delete comment", func(tx *store.Tx) ([]notice, error) {
		var err error
		comment, err = tx.RemoveCommentByID(ctx, id)
		if err != nil {
			return nil, notFound(err, model.KindComment, id)
		}
		return commentNotice(pubsub.Deleted, comment), nil
	})
	if err != nil {
		return model.Comment{}, err
	}

	e.logger.Info("comment deleted", "id", comment.ID)
	return comment, nil
}
