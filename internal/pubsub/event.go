package pubsub

import "github.com/roach88/quill/internal/model"

// Mutation classifies an entity-state transition as seen by subscribers.
type Mutation string

const (
	Created Mutation = "CREATED"
	Updated Mutation = "UPDATED"
	Deleted Mutation = "DELETED"
)

// PostTopic carries events for published posts.
const PostTopic = "post"

// CommentTopic returns the topic carrying comment events for one post.
func CommentTopic(postID string) string {
	return "comment:" + postID
}

// Event is a tagged change record.
type Event struct {
	Mutation Mutation     `json:"mutation"`
	Data     model.Entity `json:"data"`
}

// Post returns the payload as a post, if it is one.
func (e Event) Post() (model.Post, bool) {
	p, ok := e.Data.(model.Post)
	return p, ok
}

// Comment returns the payload as a comment, if it is one.
func (e Event) Comment() (model.Comment, bool) {
	c, ok := e.Data.(model.Comment)
	return c, ok
}
