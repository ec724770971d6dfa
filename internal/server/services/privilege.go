package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
)

// PrivilegeService is the privilege registry. It works on masks and does no
// authorization of its own; callers check the gate first.
type PrivilegeService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

// NewPrivilegeService constructs a PrivilegeService.
func NewPrivilegeService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *PrivilegeService {
	return &PrivilegeService{db: db, repomanager: m, log: log.With("module", "privileges")}
}

// Set creates or overwrites key on mask. An unknown mask wraps
// common.ErrNotFound.
func (s *PrivilegeService) Set(ctx context.Context, mask, key, value string) error {
	if key == "" {
		return common.ErrEmptyKey
	}
	if err := s.repomanager.Privileges(s.db).Upsert(ctx, mask, key, value); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	s.log.Info(ctx, "privilege set", "mask", mask, "key", key)
	return nil
}

// Unset removes key from mask.
func (s *PrivilegeService) Unset(ctx context.Context, mask, key string) error {
	if key == "" {
		return common.ErrEmptyKey
	}
	if err := s.repomanager.Privileges(s.db).Delete(ctx, mask, key); err != nil {
		return fmt.Errorf("unset %q: %w", key, err)
	}
	s.log.Info(ctx, "privilege unset", "mask", mask, "key", key)
	return nil
}

// Get returns the value of key on mask. Absent keys and unknown masks both
// report ok == false.
func (s *PrivilegeService) Get(ctx context.Context, mask, key string) (string, bool, error) {
	if key == "" {
		return "", false, common.ErrEmptyKey
	}
	return s.repomanager.Privileges(s.db).Get(ctx, mask, key)
}

// List returns every privilege on mask.
func (s *PrivilegeService) List(ctx context.Context, mask string) (map[string]string, error) {
	return s.repomanager.Privileges(s.db).List(ctx, mask)
}
