package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
)

// KeyUUID is the privilege stamped on every new token with its owner's id.
const KeyUUID = "uuid"

// TokenService is the token vault. It hands out bearer codes once and keeps
// only their sealed form and mask.
type TokenService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.Argon2
	log         logging.Logger
}

// NewTokenService constructs a TokenService.
func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, hasher *cryptox.Argon2, log logging.Logger) *TokenService {
	return &TokenService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		log:         log.With("module", "tokens"),
	}
}

// Issue verifies password against the owner's hash and replaces the owner's
// token with a fresh one. The new code is returned base64 encoded; it cannot
// be read back later without the password.
//
// The hash is read and checked inside the write transaction with the user
// row locked, so a password change cannot slip in between the check and the
// seal.
func (s *TokenService) Issue(ctx context.Context, ownerID, password string) (string, error) {
	var code string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		hash, err := s.repomanager.Users(tx).LockPasswordHash(ctx, ownerID)
		if err != nil {
			return fmt.Errorf("issue token: %w", err)
		}
		if !s.hasher.VerifyPassword(password, hash) {
			return fmt.Errorf("issue token: %w", common.ErrBadCredential)
		}
		code, err = s.issue(ctx, tx, ownerID, password)
		return err
	})
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "token issued", "owner", ownerID)
	return code, nil
}

// issue seals a fresh code under password and stores it for ownerID on tx,
// dropping the previous token and its privileges. The caller owns the
// transaction and has already checked the password.
func (s *TokenService) issue(ctx context.Context, tx dbx.DBTX, ownerID, password string) (string, error) {
	code := cryptox.RandomCode()
	defer common.WipeByteArray(code)

	sealed, err := s.hasher.Seal(code, password)
	if err != nil {
		return "", fmt.Errorf("seal token: %w", err)
	}
	mask := cryptox.MaskCode(code)

	token := &models.Token{
		OwnerID:    ownerID,
		Ciphertext: sealed.Ciphertext,
		Salt:       sealed.Salt,
		Nonce:      sealed.Nonce,
		Tag:        sealed.Tag,
		Mask:       mask,
	}
	if err := s.repomanager.Tokens(tx).Replace(ctx, token); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	if err := s.repomanager.Privileges(tx).Upsert(ctx, mask, KeyUUID, ownerID); err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return cryptox.EncodeCode(code), nil
}

// Recover unseals the owner's current token. The token and the hash come
// from one read, so they always belong to the same password. The password
// check and the unseal both run regardless of the outcome of the other, so
// a wrong password and a corrupted token take the same time to report.
func (s *TokenService) Recover(ctx context.Context, ownerID, password string) (string, error) {
	token, hash, err := s.repomanager.Tokens(s.db).GetSealed(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("recover token: %w", err)
	}

	verified := s.hasher.VerifyPassword(password, hash)
	code, unsealErr := s.hasher.Unseal(&cryptox.Sealed{
		Ciphertext: token.Ciphertext,
		Salt:       token.Salt,
		Nonce:      token.Nonce,
		Tag:        token.Tag,
	}, password)
	defer common.WipeByteArray(code)

	switch {
	case !verified:
		return "", fmt.Errorf("recover token: %w", common.ErrBadCredential)
	case unsealErr != nil:
		s.log.Warn(ctx, "sealed token failed authentication", "owner", ownerID)
		return "", fmt.Errorf("recover token: %w", common.ErrIntegrity)
	}
	return cryptox.EncodeCode(code), nil
}

// RecoverByName resolves name to an owner id and recovers its token.
func (s *TokenService) RecoverByName(ctx context.Context, name, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("recover token: %w", err)
	}
	return s.Recover(ctx, user.ID, password)
}

// Identify returns the owner of code. Malformed and unknown codes are both
// reported as common.ErrNotFound.
func (s *TokenService) Identify(ctx context.Context, code string) (string, error) {
	mask, err := cryptox.MaskString(code)
	if err != nil {
		return "", fmt.Errorf("identify: %w", common.ErrNotFound)
	}
	ownerID, err := s.repomanager.Tokens(s.db).OwnerByMask(ctx, mask)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("identify: %w", common.ErrNotFound)
		}
		return "", err
	}
	return ownerID, nil
}
