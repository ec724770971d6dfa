package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/tokenkeeper/internal/cryptox"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

var testParams = cryptox.Params{Time: 1, MemoryKiB: 8 * 1024, Threads: 1}

type fixture struct {
	db         *sql.DB
	m          repomanager.RepositoryManager
	users      *UserService
	tokens     *TokenService
	privileges *PrivilegeService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, m, err := repomanager.Open(context.Background(), repomanager.DriverSQLite, filepath.Join(t.TempDir(), "services.sqlite"), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return buildFixture(db, m)
}

// newHookedFixture is newFixture with repositories that run test hooks.
func newHookedFixture(t *testing.T) (*fixture, *hookedManager) {
	t.Helper()
	f := newFixture(t)
	hm := &hookedManager{RepositoryManager: f.m}
	return buildFixture(f.db, hm), hm
}

func buildFixture(db *sql.DB, m repomanager.RepositoryManager) *fixture {
	hasher := cryptox.NewArgon2(testParams)
	log := logging.Discard()
	ts := NewTokenService(db, m, hasher, log)

	return &fixture{
		db:         db,
		m:          m,
		users:      NewUserService(db, m, hasher, ts, log),
		tokens:     ts,
		privileges: NewPrivilegeService(db, m, log),
	}
}

// hookedManager wraps the real repositories. onLock runs once, inside the
// transaction, right before the user row is locked; replaceErr makes every
// token replacement fail.
type hookedManager struct {
	repomanager.RepositoryManager
	onLock     func()
	replaceErr error
}

func (m *hookedManager) Users(db dbx.DBTX) users.Repository {
	return &hookedUsers{Repository: m.RepositoryManager.Users(db), m: m}
}

func (m *hookedManager) Tokens(db dbx.DBTX) tokens.Repository {
	return &hookedTokens{Repository: m.RepositoryManager.Tokens(db), m: m}
}

type hookedUsers struct {
	users.Repository
	m *hookedManager
}

func (r *hookedUsers) LockPasswordHash(ctx context.Context, id string) (string, error) {
	if hook := r.m.onLock; hook != nil {
		r.m.onLock = nil
		hook()
	}
	return r.Repository.LockPasswordHash(ctx, id)
}

type hookedTokens struct {
	tokens.Repository
	m *hookedManager
}

func (r *hookedTokens) Replace(ctx context.Context, t *models.Token) error {
	if r.m.replaceErr != nil {
		return r.m.replaceErr
	}
	return r.Repository.Replace(ctx, t)
}

func (f *fixture) register(t *testing.T, name, password string) (string, string) {
	t.Helper()
	u, code, err := f.users.Register(context.Background(), name, password)
	require.NoError(t, err)
	return u.ID, code
}

func maskOf(t *testing.T, code string) string {
	t.Helper()
	mask, err := cryptox.MaskString(code)
	require.NoError(t, err)
	return mask
}
