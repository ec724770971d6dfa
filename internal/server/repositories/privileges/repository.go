// Package privileges declares the privilege registry storage contract and
// its SQL implementation.
package privileges

import (
	"context"
)

// Repository persists privileges keyed by (mask, key).
type Repository interface {
	// Upsert sets key to value on mask. An unknown mask wraps
	// common.ErrNotFound.
	Upsert(ctx context.Context, mask, key, value string) error

	// Delete removes the (mask, key) pair, wrapping common.ErrNotFound when
	// it does not exist.
	Delete(ctx context.Context, mask, key string) error

	// Get returns the value of key on mask. A missing pair is reported with
	// ok == false and a nil error.
	Get(ctx context.Context, mask, key string) (value string, ok bool, err error)

	// List returns every key/value pair on mask.
	List(ctx context.Context, mask string) (map[string]string, error)
}
