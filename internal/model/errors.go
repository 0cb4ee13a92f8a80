package model

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes domain errors.
type ErrorCode string

const (
	// CodeConflict indicates a uniqueness violation (duplicate email).
	CodeConflict ErrorCode = "CONFLICT"

	// CodeNotFound indicates an unknown id, or a subscription to a post
	// that is missing or unpublished.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeInvalidReference indicates a missing author or post at creation.
	CodeInvalidReference ErrorCode = "INVALID_REFERENCE"
)

// Sentinels for errors.Is matching. A *Error matches the sentinel with
// the same code.
var (
	ErrConflict         = &Error{Code: CodeConflict}
	ErrNotFound         = &Error{Code: CodeNotFound}
	ErrInvalidReference = &Error{Code: CodeInvalidReference}
)

// Error is a domain error reported synchronously to the caller of a
// mutation or subscribe call.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Entity is the collection the error concerns.
	Entity EntityKind

	// ID is the offending id, if any.
	ID string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	if e.ID != "" {
		return fmt.Sprintf("%s: %s (%s=%s)", e.Code, e.Message, e.Entity, e.ID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is a *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewConflict creates a conflict error.
func NewConflict(entity EntityKind, message string) *Error {
	return &Error{Code: CodeConflict, Entity: entity, Message: message}
}

// NewNotFound creates a not-found error for the given id.
func NewNotFound(entity EntityKind, id string) *Error {
	return &Error{
		Code:    CodeNotFound,
		Entity:  entity,
		ID:      id,
		Message: fmt.Sprintf("%s not found", entity),
	}
}

// NewInvalidReference creates an invalid-reference error.
func NewInvalidReference(entity EntityKind, message string) *Error {
	return &Error{Code: CodeInvalidReference, Entity: entity, Message: message}
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsConflict returns true if err is a conflict error.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound returns true if err is a not-found error.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidReference returns true if err is an invalid-reference error.
func IsInvalidReference(err error) bool { return errors.Is(err, ErrInvalidReference) }
