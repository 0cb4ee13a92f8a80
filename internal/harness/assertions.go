package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/quill/internal/pubsub"
	"github.com/roach88/quill/internal/store"
)

// checkExpect compares a step outcome against its expectations.
func (h *Harness) checkExpect(step Step, entry TraceEntry, events []TraceEntry) []string {
	var errs []string

	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}
	if entry.Error != want {
		switch {
		case want == "":
			errs = append(errs, fmt.Sprintf("unexpected error %s", entry.Error))
		case entry.Error == "":
			errs = append(errs, fmt.Sprintf("expected error %s, got success", want))
		default:
			errs = append(errs, fmt.Sprintf("expected error %s, got %s", want, entry.Error))
		}
	}

	if step.Expect == nil {
		return errs
	}

	if step.Expect.NoEvents && len(events) > 0 {
		errs = append(errs, fmt.Sprintf("expected no events, got %d", len(events)))
	}

	if step.Expect.Events == nil {
		return errs
	}
	if len(events) != len(step.Expect.Events) {
		return append(errs, fmt.Sprintf("expected %d events, got %d", len(step.Expect.Events), len(events)))
	}
	for i, exp := range step.Expect.Events {
		got := events[i]
		id, err := resolveAlias(h.aliases, exp.ID)
		if err != nil {
			errs = append(errs, fmt.Sprintf("event %d: %v", i+1, err))
			continue
		}
		if got.Subscription != exp.Subscription || string(got.Mutation) != exp.Mutation || got.Data.EntityID() != id {
			errs = append(errs, fmt.Sprintf("event %d: expected %s <- %s %s, got %s <- %s %s",
				i+1, exp.Subscription, exp.Mutation, id, got.Subscription, got.Mutation, got.Data.EntityID()))
			continue
		}
		if msg := checkPayload(exp, got.Event()); msg != "" {
			errs = append(errs, fmt.Sprintf("event %d: %s", i+1, msg))
		}
	}
	return errs
}

// checkPayload compares the optional payload fields of an expected event.
func checkPayload(exp ExpectedEvent, ev pubsub.Event) string {
	if exp.Published != nil {
		p, ok := ev.Post()
		if !ok {
			return fmt.Sprintf("published expected on a post, got a %s", ev.Data.Kind())
		}
		if p.Published != *exp.Published {
			return fmt.Sprintf("expected published=%t, got %t", *exp.Published, p.Published)
		}
	}
	if exp.Text != nil {
		c, ok := ev.Comment()
		if !ok {
			return fmt.Sprintf("text expected on a comment, got a %s", ev.Data.Kind())
		}
		if c.Text != *exp.Text {
			return fmt.Sprintf("expected text %q, got %q", *exp.Text, c.Text)
		}
	}
	return ""
}

// evaluateAssertions checks final store state.
func (h *Harness) evaluateAssertions(ctx context.Context, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := h.evaluateAssertion(ctx, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s %s): %v", i+1, a.Type, a.Collection, err))
		}
	}
	return errs
}

func (h *Harness) evaluateAssertion(ctx context.Context, a Assertion) error {
	switch a.Type {
	case AssertCount:
		var n int
		err := h.store.View(ctx, func(tx *store.Tx) error {
			var err error
			n, err = countRows(ctx, tx, a.Collection)
			return err
		})
		if err != nil {
			return err
		}
		if n != a.Count {
			return fmt.Errorf("expected %d rows, got %d", a.Count, n)
		}
		return nil

	case AssertPresent, AssertAbsent:
		id, err := resolveAlias(h.aliases, a.ID)
		if err != nil {
			return err
		}
		var found bool
		err = h.store.View(ctx, func(tx *store.Tx) error {
			var err error
			found, err = rowExists(ctx, tx, a.Collection, id)
			return err
		})
		if err != nil {
			return err
		}
		if a.Type == AssertPresent && !found {
			return fmt.Errorf("%s not found", id)
		}
		if a.Type == AssertAbsent && found {
			return fmt.Errorf("%s still present", id)
		}
		return nil

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func countRows(ctx context.Context, tx *store.Tx, collection string) (int, error) {
	switch collection {
	case "users":
		rows, err := tx.FindUsers(ctx)
		return len(rows), err
	case "posts":
		rows, err := tx.FindPosts(ctx)
		return len(rows), err
	case "comments":
		rows, err := tx.FindComments(ctx)
		return len(rows), err
	}
	return 0, fmt.Errorf("unknown collection %q", collection)
}

func rowExists(ctx context.Context, tx *store.Tx, collection, id string) (bool, error) {
	var err error
	switch collection {
	case "users":
		_, err = tx.FindUserByID(ctx, id)
	case "posts":
		_, err = tx.FindPostByID(ctx, id)
	case "comments":
		_, err = tx.FindCommentByID(ctx, id)
	default:
		return false, fmt.Errorf("unknown collection %q", collection)
	}
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
