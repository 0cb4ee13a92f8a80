// Package model defines the entities held by the content store, the inputs
// and patches accepted by mutations, and the error taxonomy shared by the
// store, the mutation engine and the subscription feed.
package model

// User is an account that may author posts and comments.
// Email is unique across all users.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
	Age   *int   `json:"age,omitempty" yaml:"age,omitempty"`
}

// Post is authored by a User. Published is the visibility gate: only
// published posts accept comments and emit post-level events.
type Post struct {
	ID        string `json:"id" yaml:"id"`
	Title     string `json:"title" yaml:"title"`
	Body      string `json:"body" yaml:"body"`
	Published bool   `json:"published" yaml:"published"`
	Author    string `json:"author" yaml:"author"`
}

// Comment belongs to a Post and is authored by a User. Both references
// are fixed at creation.
type Comment struct {
	ID     string `json:"id" yaml:"id"`
	Text   string `json:"text" yaml:"text"`
	Post   string `json:"post" yaml:"post"`
	Author string `json:"author" yaml:"author"`
}

// Entity is implemented by every record type.
type Entity interface {
	EntityID() string
	Kind() EntityKind
}

// EntityKind names a collection.
type EntityKind string

const (
	KindUser    EntityKind = "user"
	KindPost    EntityKind = "post"
	KindComment EntityKind = "comment"
)

func (u User) EntityID() string    { return u.ID }
func (u User) Kind() EntityKind    { return KindUser }
func (p Post) EntityID() string    { return p.ID }
func (p Post) Kind() EntityKind    { return KindPost }
func (c Comment) EntityID() string { return c.ID }
func (c Comment) Kind() EntityKind { return KindComment }

// Clone returns a copy of u that shares no memory with it.
func (u User) Clone() User {
	if u.Age != nil {
		age := *u.Age
		u.Age = &age
	}
	return u
}

// UserInput carries the fields of a new user.
type UserInput struct {
	Name  string
	Email string
	Age   *int
}

// PostInput carries the fields of a new post.
type PostInput struct {
	Title     string
	Body      string
	Published bool
	Author    string
}

// CommentInput carries the fields of a new comment.
type CommentInput struct {
	Text   string
	Post   string
	Author string
}
