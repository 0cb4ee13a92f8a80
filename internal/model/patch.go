package model

// Optional is a patch field that distinguishes "not supplied" from any
// supplied value, including a nil pointer.
type Optional[T any] struct {
	Value T
	Set   bool
}

// Some returns a supplied Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// Get returns the value and whether it was supplied.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Set
}

// UserPatch overwrites only the fields that are Set.
// Age may be set to nil to clear it.
type UserPatch struct {
	Name  Optional[string]
	Email Optional[string]
	Age   Optional[*int]
}

// PostPatch overwrites only the fields that are Set.
// Author is absent: it is never reassigned.
type PostPatch struct {
	Title     Optional[string]
	Body      Optional[string]
	Published Optional[bool]
}

// CommentPatch overwrites only the fields that are Set.
type CommentPatch struct {
	Text Optional[string]
}
