package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesSentinelThroughWrapping(t *testing.T) {
	err := fmt.Errorf("update user: %w", NewNotFound(KindUser, "u-1"))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsConflict(err))
	assert.False(t, IsInvalidReference(err))
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"with id", NewNotFound(KindPost, "p-1"), "NOT_FOUND: post not found (post=p-1)"},
		{"without id", NewConflict(KindUser, "email taken"), "CONFLICT: email taken"},
		{"bare sentinel", ErrInvalidReference, "INVALID_REFERENCE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestCodeOfNonDomainError(t *testing.T) {
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("boom")))
	assert.Equal(t, ErrorCode(""), CodeOf(nil))
}
