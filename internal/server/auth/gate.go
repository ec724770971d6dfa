// Package auth decides who may mutate privileges. A caller is allowed when
// it presents the process root secret, or a bearer code whose own privileges
// include root or manage-privilege set to "1".
package auth

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
)

// Privilege keys the gate understands.
const (
	KeyRoot            = "root"
	KeyManagePrivilege = "manage-privilege"

	granted = "1"
)

const rootSecretSize = 32

// NewRootSecret returns a fresh base64 root secret. It lives only as long as
// the process that generated it.
func NewRootSecret() string {
	return common.MakeRandBase64String(rootSecretSize)
}

// Gate authorizes privilege mutations.
type Gate struct {
	rootSecret  []byte
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewGate constructs a Gate. An empty rootSecret disables the root path.
func NewGate(rootSecret string, db *sql.DB, m repomanager.RepositoryManager) *Gate {
	return &Gate{rootSecret: []byte(rootSecret), db: db, repomanager: m}
}

// Authorize returns nil when auth may mutate privileges and an error
// wrapping common.ErrUnauthorized when it may not. Only the privileges held
// by auth itself are consulted. Store failures are returned as is.
func (g *Gate) Authorize(ctx context.Context, auth string) error {
	if len(g.rootSecret) > 0 && subtle.ConstantTimeCompare([]byte(auth), g.rootSecret) == 1 {
		return nil
	}

	mask, err := cryptox.MaskString(auth)
	if err != nil {
		return common.ErrUnauthorized
	}

	repo := g.repomanager.Privileges(g.db)
	for _, key := range []string{KeyRoot, KeyManagePrivilege} {
		v, ok, err := repo.Get(ctx, mask, key)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				continue
			}
			return fmt.Errorf("authorize: %w", err)
		}
		if ok && v == granted {
			return nil
		}
	}
	return common.ErrUnauthorized
}
