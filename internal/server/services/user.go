// Package services contains the server-side business logic: the user store,
// the token vault and the privilege registry. Services own transactions and
// call repositories through the repository manager.
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
	"github.com/google/uuid"
)

// UserService provides user lifecycle operations:
// - Register: create a user together with its first token
// - Authenticate: check a name/password pair
// - Rename, ChangePassword, Remove: mutate an existing user
// - FindByID, FindByName, PageIDs, PageNames: lookups
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      *cryptox.Argon2
	tokens      *TokenService
	log         logging.Logger

	// dummyHash is verified against when a name is unknown.
	dummyHash string
}

// NewUserService constructs a UserService. tokens is used to mint the token
// of a new user and to re-issue it when the password changes.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher *cryptox.Argon2, tokens *TokenService, log logging.Logger) *UserService {
	dummy, _ := hasher.HashPassword(common.MakeRandBase64String(16))
	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		log:         log.With("module", "users"),
		dummyHash:   dummy,
	}
}

// Register creates a user and its initial token in one transaction and
// returns the user along with the token's code.
func (s *UserService) Register(ctx context.Context, name, password string) (*models.User, string, error) {
	if err := validateName(name); err != nil {
		return nil, "", err
	}
	if err := validatePassword(password); err != nil {
		return nil, "", err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, "", fmt.Errorf("generate user id: %w", err)
	}
	hash, err := s.hasher.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{ID: id.String(), Name: name, PasswordHash: hash}

	var code string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return fmt.Errorf("register %q: %w", name, err)
		}
		var err error
		code, err = s.tokens.issue(ctx, tx, user.ID, password)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.log.Info(ctx, "user registered", "id", user.ID)
	return user, code, nil
}

// Authenticate returns the id of the user named name when password matches.
func (s *UserService) Authenticate(ctx context.Context, name, password string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.hasher.VerifyPassword(password, s.dummyHash)
		}
		return "", fmt.Errorf("authenticate: %w", err)
	}
	if !s.hasher.VerifyPassword(password, user.PasswordHash) {
		s.log.Debug(ctx, "password mismatch", "id", user.ID)
		return "", fmt.Errorf("authenticate: %w", common.ErrBadCredential)
	}
	return user.ID, nil
}

// Rename changes the name of user id.
func (s *UserService) Rename(ctx context.Context, id, newName string) error {
	if err := validateName(newName); err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).UpdateName(ctx, id, newName); err != nil {
		return fmt.Errorf("rename %q: %w", newName, err)
	}
	s.log.Info(ctx, "user renamed", "id", id)
	return nil
}

// ChangePassword stores a new hash for user id and re-issues its token under
// newPassword. The token sealed under the old password is dropped with it.
func (s *UserService) ChangePassword(ctx context.Context, id, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	hash, err := s.hasher.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, id, hash); err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		_, err := s.tokens.issue(ctx, tx, id, newPassword)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password changed", "id", id)
	return nil
}

// Remove deletes user id. Its token and privileges go with it.
func (s *UserService) Remove(ctx context.Context, id string) error {
	if err := s.repomanager.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	s.log.Info(ctx, "user removed", "id", id)
	return nil
}

// FindByID returns the name of user id.
func (s *UserService) FindByID(ctx context.Context, id string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Name, nil
}

// FindByName returns the id of the user called name.
func (s *UserService) FindByName(ctx context.Context, name string) (string, error) {
	user, err := s.repomanager.Users(s.db).GetByName(ctx, name)
	if err != nil {
		return "", err
	}
	return user.ID, nil
}

// PageIDs lists user ids in creation order.
func (s *UserService) PageIDs(ctx context.Context, size, offset int) ([]string, error) {
	if err := validatePage(size, offset); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).ListIDs(ctx, size, offset)
}

// PageNames lists user names in creation order.
func (s *UserService) PageNames(ctx context.Context, size, offset int) ([]string, error) {
	if err := validatePage(size, offset); err != nil {
		return nil, err
	}
	return s.repomanager.Users(s.db).ListNames(ctx, size, offset)
}
