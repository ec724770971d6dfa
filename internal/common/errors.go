// Package common defines shared constants, sentinel errors and small helpers
// used across TokenKeeper components. Callers should use errors.Is to match
// the error kinds below.
package common

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the core wraps exactly one of these.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrConflict      = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrBadCredential = errors.New("bad credential")
	ErrIntegrity     = errors.New("integrity check failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrStoreFailure  = errors.New("store failure")
)

// Validation errors.
var (
	ErrInvalidName = fmt.Errorf("%w: user name must be at least %d characters (a-z, A-Z, 0-9, and _) in length",
		ErrInvalidInput, MinNameLength)
	ErrWeakPassword = fmt.Errorf("%w: user password must be at least %d characters in length",
		ErrInvalidInput, MinPasswordLength)
	ErrInvalidPage = fmt.Errorf("%w: page size must be at least 1 and offset must not be negative", ErrInvalidInput)
	ErrEmptyKey    = fmt.Errorf("%w: privilege key must not be empty", ErrInvalidInput)
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidInput, "INVALID_INPUT"},
	{ErrConflict, "CONFLICT"},
	{ErrNotFound, "NOT_FOUND"},
	{ErrBadCredential, "BAD_CREDENTIAL"},
	{ErrIntegrity, "INTEGRITY_ERROR"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrStoreFailure, "STORE_FAILURE"},
}

// KindOf returns the stable name of the error kind wrapped by err, or
// "INTERNAL_ERROR" when err carries none of them. It returns "" for nil.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "INTERNAL_ERROR"
}

// StoreFailure wraps a persistence error that has no more specific kind.
func StoreFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStoreFailure, err)
}
