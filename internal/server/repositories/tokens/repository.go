// Package tokens declares the token vault storage contract and its SQL
// implementation. A token row holds only the sealed code and its mask.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// Repository persists sealed tokens, at most one per owner.
type Repository interface {
	// Replace removes the owner's current token, if any, and stores t in its
	// place. The removal cascades to the old token's privileges, so callers
	// should run it inside a transaction together with anything that must be
	// granted to the new token.
	Replace(ctx context.Context, t *models.Token) error

	// GetSealed returns the sealed token of ownerID together with the owner's
	// password hash, read in one statement.
	GetSealed(ctx context.Context, ownerID string) (*models.Token, string, error)

	// OwnerByMask resolves a mask to the owning user id.
	OwnerByMask(ctx context.Context, mask string) (string, error)
}
