package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/quill/internal/model"
)

// argReader reads step arguments, resolving $alias references.
type argReader struct {
	op      string
	args    map[string]any
	aliases map[string]string
	err     error
}

func (h *Harness) reader(step Step) *argReader {
	return &argReader{op: step.Op, args: step.Args, aliases: h.aliases}
}

func (r *argReader) fail(format string, a ...any) {
	if r.err == nil {
		r.err = fmt.Errorf("%s: %s", r.op, fmt.Sprintf(format, a...))
	}
}

// resolveAlias expands a $alias into the id it names.
func resolveAlias(aliases map[string]string, s string) (string, error) {
	name, ok := strings.CutPrefix(s, "$")
	if !ok {
		return s, nil
	}
	id, ok := aliases[name]
	if !ok {
		return "", fmt.Errorf("unknown alias %q", s)
	}
	return id, nil
}

// optString returns the string at key and whether it was supplied.
func (r *argReader) optString(key string) model.Optional[string] {
	raw, ok := r.args[key]
	if !ok {
		return model.Optional[string]{}
	}
	s, ok := raw.(string)
	if !ok {
		r.fail("%s must be a string, got %T", key, raw)
		return model.Optional[string]{}
	}
	return model.Some(s)
}

// str returns a required string.
func (r *argReader) str(key string) string {
	v := r.optString(key)
	if !v.Set {
		r.fail("%s is required", key)
	}
	return v.Value
}

// ref returns a required id, expanding a $alias.
func (r *argReader) ref(key string) string {
	s := r.str(key)
	if r.err != nil {
		return ""
	}
	id, err := resolveAlias(r.aliases, s)
	if err != nil {
		r.fail("%s: %v", key, err)
	}
	return id
}

func (r *argReader) optBool(key string) model.Optional[bool] {
	raw, ok := r.args[key]
	if !ok {
		return model.Optional[bool]{}
	}
	b, ok := raw.(bool)
	if !ok {
		r.fail("%s must be a boolean, got %T", key, raw)
		return model.Optional[bool]{}
	}
	return model.Some(b)
}

// optInt returns an integer that may be explicitly null.
func (r *argReader) optInt(key string) model.Optional[*int] {
	raw, ok := r.args[key]
	if !ok {
		return model.Optional[*int]{}
	}
	switch v := raw.(type) {
	case nil:
		return model.Some[*int](nil)
	case int:
		return model.Some(&v)
	default:
		r.fail("%s must be an integer or null, got %T", key, raw)
		return model.Optional[*int]{}
	}
}
