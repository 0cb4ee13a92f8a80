package harness

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/quill/internal/model"
	"github.com/roach88/quill/internal/pubsub"
)

// Trace entry types.
const (
	EntryStep  = "step"
	EntryEvent = "event"
)

// TraceEntry is either a step outcome or an event received by a subscription.
type TraceEntry struct {
	Type string `json:"type"`

	// Step fields.
	Step   int    `json:"step,omitempty"`
	Op     string `json:"op,omitempty"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"` // entity, or subscription name

	// Event fields.
	Subscription string          `json:"subscription,omitempty"`
	Mutation     pubsub.Mutation `json:"mutation,omitempty"`
	Data         model.Entity    `json:"data,omitempty"`
}

// Event returns the event an EntryEvent recorded.
func (e TraceEntry) Event() pubsub.Event {
	return pubsub.Event{Mutation: e.Mutation, Data: e.Data}
}

// String renders the entry as one trace line.
func (e TraceEntry) String() string {
	if e.Type == EntryEvent {
		return fmt.Sprintf("    %s <- %s %s", e.Subscription, e.Mutation, compactJSON(e.Data))
	}
	if e.Error != "" {
		return fmt.Sprintf("[%d] %s error %s", e.Step, e.Op, e.Error)
	}
	if name, ok := e.Result.(string); ok {
		return fmt.Sprintf("[%d] %s ok %s", e.Step, e.Op, name)
	}
	return fmt.Sprintf("[%d] %s ok %s", e.Step, e.Op, compactJSON(e.Result))
}

func compactJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains step outcomes and received events in order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains expectation and assertion failures.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Render returns the trace, one line per entry.
func (r *Result) Render() string {
	var buf strings.Builder
	for _, e := range r.Trace {
		buf.WriteString(e.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}
