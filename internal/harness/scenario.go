package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted run of mutations and subscriptions.
type Scenario struct {
	// Name uniquely identifies this scenario (and its golden file).
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions check the final store state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation.
type Step struct {
	// Op is the operation name, e.g. "createUser" or "subscribeComments".
	Op string `yaml:"op"`

	// As names the result: the returned entity id, or the subscription.
	As string `yaml:"as,omitempty"`

	// Args are the operation inputs. Absent keys are absent patch fields.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect checks the outcome. If nil the step must succeed.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome of a step.
type Expect struct {
	// Error is the expected error code (CONFLICT, NOT_FOUND,
	// INVALID_REFERENCE). Empty means success.
	Error string `yaml:"error,omitempty"`

	// Events, when present, must equal the events received by all
	// subscriptions because of this step, in trace order.
	Events []ExpectedEvent `yaml:"events,omitempty"`

	// NoEvents asserts that the step caused no events.
	NoEvents bool `yaml:"no_events,omitempty"`
}

// ExpectedEvent matches one received event.
type ExpectedEvent struct {
	Subscription string `yaml:"subscription"`
	Mutation     string `yaml:"mutation"`
	// ID is the payload id, or a $alias.
	ID string `yaml:"id"`

	// Published, if set, must match the payload post's published flag.
	Published *bool `yaml:"published,omitempty"`

	// Text, if set, must match the payload comment's text.
	Text *string `yaml:"text,omitempty"`
}

// Assertion checks final state.
type Assertion struct {
	// Type is "count", "present" or "absent".
	Type string `yaml:"type"`

	// Collection is users, posts or comments.
	Collection string `yaml:"collection"`

	// Count is the expected row count (count).
	Count int `yaml:"count,omitempty"`

	// ID is the row id or $alias (present, absent).
	ID string `yaml:"id,omitempty"`
}

// Assertion type constants.
const (
	AssertCount   = "count"
	AssertPresent = "present"
	AssertAbsent  = "absent"
)

// Operation names.
const (
	OpCreateUser        = "createUser"
	OpUpdateUser        = "updateUser"
	OpDeleteUser        = "deleteUser"
	OpCreatePost        = "createPost"
	OpUpdatePost        = "updatePost"
	OpDeletePost        = "deletePost"
	OpCreateComment     = "createComment"
	OpUpdateComment     = "updateComment"
	OpDeleteComment     = "deleteComment"
	OpSubscribePosts    = "subscribePosts"
	OpSubscribeComments = "subscribeComments"
	OpUnsubscribe       = "unsubscribe"
)

var knownOps = map[string]bool{
	OpCreateUser: true, OpUpdateUser: true, OpDeleteUser: true,
	OpCreatePost: true, OpUpdatePost: true, OpDeletePost: true,
	OpCreateComment: true, OpUpdateComment: true, OpDeleteComment: true,
	OpSubscribePosts: true, OpSubscribeComments: true, OpUnsubscribe: true,
}

var knownCollections = map[string]bool{"users": true, "posts": true, "comments": true}

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML. Unknown fields (typos) and missing
// required fields are errors.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if !knownOps[step.Op] {
			return fmt.Errorf("step %d: unknown op %q", i+1, step.Op)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertCount, AssertPresent, AssertAbsent:
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i+1, a.Type)
		}
		if !knownCollections[a.Collection] {
			return fmt.Errorf("assertion %d: unknown collection %q", i+1, a.Collection)
		}
		if a.Type != AssertCount && a.ID == "" {
			return fmt.Errorf("assertion %d: id is required for %s", i+1, a.Type)
		}
	}

	return nil
}
