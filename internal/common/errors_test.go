package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"invalid name", ErrInvalidName, "INVALID_INPUT"},
		{"weak password", ErrWeakPassword, "INVALID_INPUT"},
		{"wrapped conflict", fmt.Errorf("create user: %w", ErrConflict), "CONFLICT"},
		{"not found", ErrNotFound, "NOT_FOUND"},
		{"bad credential", ErrBadCredential, "BAD_CREDENTIAL"},
		{"integrity", ErrIntegrity, "INTEGRITY_ERROR"},
		{"unauthorized", ErrUnauthorized, "UNAUTHORIZED"},
		{"store", StoreFailure("get user", errors.New("db down")), "STORE_FAILURE"},
		{"foreign", errors.New("boom"), "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestStoreFailure_KeepsCause(t *testing.T) {
	cause := errors.New("db down")
	err := StoreFailure("get user", cause)

	assert.ErrorIs(t, err, ErrStoreFailure)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "get user")
}
