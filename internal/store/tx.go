package store

import (
	"context"
	"database/sql"

	"github.com/roach88/quill/internal/model"
)

// Tx exposes the collection primitives inside a transaction.
// A Tx is only valid for the duration of the Update or View callback.
type Tx struct {
	tx *sql.Tx
}

var users = table[model.User]{
	name: "users",
	// email_key is derived from email on every write and only used for
	// lookups; it is never scanned back into the User.
	columns: []string{"id", "name", "email", "age", "email_key"},
	scan: func(r rowScanner) (model.User, error) {
		var (
			u   model.User
			age sql.NullInt64
			key string
		)
		if err := r.Scan(&u.ID, &u.Name, &u.Email, &age, &key); err != nil {
			return model.User{}, err
		}
		if age.Valid {
			v := int(age.Int64)
			u.Age = &v
		}
		return u, nil
	},
	values: func(u model.User) []any {
		var age any
		if u.Age != nil {
			age = int64(*u.Age)
		}
		return []any{u.ID, u.Name, u.Email, age, model.NormalizeEmail(u.Email)}
	},
}

var posts = table[model.Post]{
	name:    "posts",
	columns: []string{"id", "title", "body", "published", "author"},
	scan: func(r rowScanner) (model.Post, error) {
		var p model.Post
		err := r.Scan(&p.ID, &p.Title, &p.Body, &p.Published, &p.Author)
		return p, err
	},
	values: func(p model.Post) []any {
		return []any{p.ID, p.Title, p.Body, p.Published, p.Author}
	},
}

var comments = table[model.Comment]{
	name:    "comments",
	columns: []string{"id", "text", "post", "author"},
	scan: func(r rowScanner) (model.Comment, error) {
		var c model.Comment
		err := r.Scan(&c.ID, &c.Text, &c.Post, &c.Author)
		return c, err
	},
	values: func(c model.Comment) []any {
		return []any{c.ID, c.Text, c.Post, c.Author}
	},
}

// InsertUser adds a user row.
func (t *Tx) InsertUser(ctx context.Context, u model.User) error {
	return users.insert(ctx, t.tx, u)
}

// FindUserByID returns ErrNotFound if no user has id.
func (t *Tx) FindUserByID(ctx context.Context, id string) (model.User, error) {
	return users.findByID(ctx, t.tx, id)
}

// FindUsers returns the users matching every predicate.
func (t *Tx) FindUsers(ctx context.Context, where ...Where) ([]model.User, error) {
	return users.find(ctx, t.tx, where)
}

// SaveUser overwrites an existing user row.
func (t *Tx) SaveUser(ctx context.Context, u model.User) error {
	return users.save(ctx, t.tx, u)
}

// RemoveUserByID deletes a user row and returns it.
func (t *Tx) RemoveUserByID(ctx context.Context, id string) (model.User, error) {
	return users.removeByID(ctx, t.tx, id)
}

// InsertPost adds a post row.
func (t *Tx) InsertPost(ctx context.Context, p model.Post) error {
	return posts.insert(ctx, t.tx, p)
}

// FindPostByID returns ErrNotFound if no post has id.
func (t *Tx) FindPostByID(ctx context.Context, id string) (model.Post, error) {
	return posts.findByID(ctx, t.tx, id)
}

// FindPosts returns the posts matching every predicate.
func (t *Tx) FindPosts(ctx context.Context, where ...Where) ([]model.Post, error) {
	return posts.find(ctx, t.tx, where)
}

// SavePost overwrites an existing post row.
func (t *Tx) SavePost(ctx context.Context, p model.Post) error {
	return posts.save(ctx, t.tx, p)
}

// RemovePostByID deletes a post row and returns it.
func (t *Tx) RemovePostByID(ctx context.Context, id string) (model.Post, error) {
	return posts.removeByID(ctx, t.tx, id)
}

// InsertComment adds a comment row.
func (t *Tx) InsertComment(ctx context.Context, c model.Comment) error {
	return comments.insert(ctx, t.tx, c)
}

// FindCommentByID returns ErrNotFound if no comment has id.
func (t *Tx) FindCommentByID(ctx context.Context, id string) (model.Comment, error) {
	return comments.findByID(ctx, t.tx, id)
}

// FindComments returns the comments matching every predicate.
func (t *Tx) FindComments(ctx context.Context, where ...Where) ([]model.Comment, error) {
	return comments.find(ctx, t.tx, where)
}

// SaveComment overwrites an existing comment row.
func (t *Tx) SaveComment(ctx context.Context, c model.Comment) error {
	return comments.save(ctx, t.tx, c)
}

// RemoveCommentByID deletes a comment row and returns it.
func (t *Tx) RemoveCommentByID(ctx context.Context, id string) (model.Comment, error) {
	return comments.removeByID(ctx, t.tx, id)
}
