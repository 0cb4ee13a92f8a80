package mutation

import (
	"context"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/store"
)

// CreateUser inserts a new user. Fails with Conflict if the email is taken.
func (e *Engine) CreateUser(ctx context.Context, in model.UserInput) (model.User, error) {
	var user model.User
	err := e.apply(ctx, "create user", func(tx *store.Tx) ([]notice, error) {
		if err := ensureEmailFree(ctx, tx, in.Email, ""); err != nil {
			return nil, err
		}

		user = model.User{ID: e.ids.Generate(), Name: in.Name, Email: in.Email, Age: in.Age}.Clone()
		return nil, tx.InsertUser(ctx, user)
	})
	if err != nil {
		return model.User{}, err
	}

	e.logger.Info("user created", "id", user.ID)
	return user, nil
}

// UpdateUser overwrites the fields set in patch. Fails with NotFound for an
// unknown id and with Conflict if the new email belongs to another user.
func (e *Engine) UpdateUser(ctx context.Context, id string, patch model.UserPatch) (model.User, error) {
	var user model.User
	err := e.apply(ctx, "update user", func(tx *store.Tx) ([]notice, error) {
		var err error
		user, err = tx.FindUserByID(ctx, id)
		if err != nil {
			return nil, notFound(err, model.KindUser, id)
		}

		if email, ok := patch.Email.Get(); ok {
			if err := ensureEmailFree(ctx, tx, email, id); err != nil {
				return nil, err
			}
			user.Email = email
		}
		if name, ok := patch.Name.Get(); ok {
			user.Name = name
		}
		if age, ok := patch.Age.Get(); ok {
			user.Age = age
			user = user.Clone()
		}

		return nil, tx.SaveUser(ctx, user)
	})
	if err != nil {
		return model.User{}, err
	}

	e.logger.Info("user updated", "id", user.ID)
	return user, nil
}

// DeleteUser removes a user together with their posts, the comments on
// those posts, and every comment they wrote elsewhere. The cascade is
// silent: no events are published.
func (e *Engine) DeleteUser(ctx context.Context, id string) (model.User, error) {
	var (
		user            model.User
		postsRemoved    int
		commentsRemoved int
	)
	err := e.apply(ctx, "delete user", func(tx *store.Tx) ([]notice, error) {
		var err error
		user, err = tx.RemoveUserByID(ctx, id)
		if err != nil {
			return nil, notFound(err, model.KindUser, id)
		}

		authored, err := tx.FindPosts(ctx, store.Eq("author", id))
		if err != nil {
			return nil, err
		}
		for _, p := range authored {
			if _, err := tx.RemovePostByID(ctx, p.ID); err != nil {
				return nil, err
			}
			postsRemoved++

			n, err := removeComments(ctx, tx, store.Eq("post", p.ID))
			if err != nil {
				return nil, err
			}
			commentsRemoved += n
		}

		n, err := removeComments(ctx, tx, store.Eq("author", id))
		if err != nil {
			return nil, err
		}
		commentsRemoved += n

		return nil, nil
	})
	if err != nil {
		return model.User{}, err
	}

	e.logger.Info("user deleted",
		"id", user.ID,
		"posts_removed", postsRemoved,
		"comments_removed", commentsRemoved,
	)
	return user, nil
}

// ensureEmailFree fails with Conflict if a user other than self owns an
// email that normalizes to the same key.
func ensureEmailFree(ctx context.Context, tx *store.Tx, email, self string) error {
	owners, err := tx.FindUsers(ctx, store.Eq("email_key", model.NormalizeEmail(email)))
	if err != nil {
		return err
	}
	for _, o := range owners {
		if o.ID != self {
			return model.NewConflict(model.KindUser, "email taken")
		}
	}
	return nil
}

// removeComments deletes every comment matching where and returns the count.
func removeComments(ctx context.Context, tx *store.Tx, where store.Where) (int, error) {
	matched, err := tx.FindComments(ctx, where)
	if err != nil {
		return 0, err
	}
	for _, c := range matched {
		if _, err := tx.RemoveCommentByID(ctx, c.ID); err != nil {
			return 0, err
		}
	}
	return len(matched), nil
}
