// Package repomanager vends repository implementations bound to a DBTX and
// applies the embedded schema migrations for the configured driver.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/privileges"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/users"
)

// RepositoryManager hands out repositories for a *sql.DB or an open *sql.Tx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Privileges(db dbx.DBTX) privileges.Repository
}
