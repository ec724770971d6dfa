// Package core is the single entry point adapters use. Keeper takes plain
// strings and integers, calls the services and returns their results and
// errors unchanged.
package core

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/auth"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/services"
)

// Keeper is the core facade.
type Keeper struct {
	users      *services.UserService
	tokens     *services.TokenService
	privileges *services.PrivilegeService
	gate       *auth.Gate
}

// New wires a Keeper over an opened store. rootSecret is the value the gate
// accepts in place of a privileged code.
func New(db *sql.DB, m repomanager.RepositoryManager, hasher *cryptox.Argon2, rootSecret string, log logging.Logger) *Keeper {
	tokens := services.NewTokenService(db, m, hasher, log)
	return &Keeper{
		users:      services.NewUserService(db, m, hasher, tokens, log),
		tokens:     tokens,
		privileges: services.NewPrivilegeService(db, m, log),
		gate:       auth.NewGate(rootSecret, db, m),
	}
}

// Register creates a user with an initial token and returns the user's id.
func (k *Keeper) Register(ctx context.Context, name, password string) (string, error) {
	id, _, err := k.RegisterWithToken(ctx, name, password)
	return id, err
}

// RegisterWithToken is Register that also returns the initial token's code,
// sparing callers a RecoverToken round.
func (k *Keeper) RegisterWithToken(ctx context.Context, name, password string) (string, string, error) {
	u, code, err := k.users.Register(ctx, name, password)
	if err != nil {
		return "", "", err
	}
	return u.ID, code, nil
}

func (k *Keeper) Authenticate(ctx context.Context, name, password string) (string, error) {
	return k.users.Authenticate(ctx, name, password)
}

func (k *Keeper) Rename(ctx context.Context, id, newName string) error {
	return k.users.Rename(ctx, id, newName)
}

// ChangePassword also replaces the user's token.
func (k *Keeper) ChangePassword(ctx context.Context, id, newPassword string) error {
	return k.users.ChangePassword(ctx, id, newPassword)
}

func (k *Keeper) Remove(ctx context.Context, id string) error {
	return k.users.Remove(ctx, id)
}

func (k *Keeper) FindByID(ctx context.Context, id string) (string, error) {
	return k.users.FindByID(ctx, id)
}

func (k *Keeper) FindByName(ctx context.Context, name string) (string, error) {
	return k.users.FindByName(ctx, name)
}

func (k *Keeper) PageIDs(ctx context.Context, size, offset int) ([]string, error) {
	return k.users.PageIDs(ctx, size, offset)
}

func (k *Keeper) PageNames(ctx context.Context, size, offset int) ([]string, error) {
	return k.users.PageNames(ctx, size, offset)
}

// IssueToken replaces the owner's token and returns the new code.
func (k *Keeper) IssueToken(ctx context.Context, ownerID, password string) (string, error) {
	return k.tokens.Issue(ctx, ownerID, password)
}

func (k *Keeper) RecoverToken(ctx context.Context, ownerID, password string) (string, error) {
	return k.tokens.Recover(ctx, ownerID, password)
}

// RecoverTokenByName is RecoverToken for callers holding a name.
func (k *Keeper) RecoverTokenByName(ctx context.Context, name, password string) (string, error) {
	return k.tokens.RecoverByName(ctx, name, password)
}

func (k *Keeper) Identify(ctx context.Context, code string) (string, error) {
	return k.tokens.Identify(ctx, code)
}

// SetPrivilege sets key on the token identified by targetCode when auth is
// allowed to manage privileges.
func (k *Keeper) SetPrivilege(ctx context.Context, auth, targetCode, key, value string) error {
	mask, err := k.authorizeTarget(ctx, auth, targetCode, key)
	if err != nil {
		return err
	}
	return k.privileges.Set(ctx, mask, key, value)
}

func (k *Keeper) UnsetPrivilege(ctx context.Context, auth, targetCode, key string) error {
	mask, err := k.authorizeTarget(ctx, auth, targetCode, key)
	if err != nil {
		return err
	}
	return k.privileges.Unset(ctx, mask, key)
}

// GetPrivilege reports ok == false both for absent keys and for codes that
// name no token.
func (k *Keeper) GetPrivilege(ctx context.Context, targetCode, key string) (string, bool, error) {
	if key == "" {
		return "", false, common.ErrEmptyKey
	}
	mask, err := cryptox.MaskString(targetCode)
	if err != nil {
		return "", false, nil
	}
	return k.privileges.Get(ctx, mask, key)
}

func (k *Keeper) ListPrivileges(ctx context.Context, targetCode string) (map[string]string, error) {
	mask, err := cryptox.MaskString(targetCode)
	if err != nil {
		return map[string]string{}, nil
	}
	return k.privileges.List(ctx, mask)
}

func (k *Keeper) authorizeTarget(ctx context.Context, auth, targetCode, key string) (string, error) {
	if key == "" {
		return "", common.ErrEmptyKey
	}
	if err := k.gate.Authorize(ctx, auth); err != nil {
		return "", err
	}
	mask, err := cryptox.MaskString(targetCode)
	if err != nil {
		return "", fmt.Errorf("target: %w", common.ErrNotFound)
	}
	return mask, nil
}
