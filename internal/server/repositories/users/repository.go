// Package users declares the user store contract and its SQL implementation.
package users

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// Repository persists users. Lookups of absent rows return an error wrapping
// common.ErrNotFound; duplicate ids or names wrap common.ErrConflict.
type Repository interface {
	// Create inserts a new user row.
	Create(ctx context.Context, user *models.User) error

	// GetByID returns the user with the given id.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByName returns the user with the given name.
	GetByName(ctx context.Context, name string) (*models.User, error)

	// LockPasswordHash returns the current password hash of id and holds the
	// row until the enclosing transaction ends, so a concurrent password
	// change waits for it (or is seen by it).
	LockPasswordHash(ctx context.Context, id string) (string, error)

	// UpdateName renames the user with the given id.
	UpdateName(ctx context.Context, id string, name string) error

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id string, hash string) error

	// Delete removes the user; the store cascades to its token and privileges.
	Delete(ctx context.Context, id string) error

	// ListIDs returns up to limit ids ordered by id, skipping offset rows.
	ListIDs(ctx context.Context, limit, offset int) ([]string, error)

	// ListNames returns up to limit names ordered by id, skipping offset rows.
	ListNames(ctx context.Context, limit, offset int) ([]string, error)
}
