package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/privileges"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager serves both supported backends. The repositories use
// the same SQL for each; only the migration dialect and directory differ.
type SQLRepositoryManager struct {
	dialect string
	dir     string
	log     logging.Logger
}

// NewPostgresRepositoryManager constructs a manager for the pgx driver.
func NewPostgresRepositoryManager() *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: "postgres", dir: migrations.PostgresDir}
}

// NewSQLiteRepositoryManager constructs a manager for modernc.org/sqlite.
func NewSQLiteRepositoryManager() *SQLRepositoryManager {
	return &SQLRepositoryManager{dialect: "sqlite3", dir: migrations.SQLiteDir}
}

// WithLogger makes RunMigrations report through log. Without one, goose
// output is dropped.
func (m *SQLRepositoryManager) WithLogger(log logging.Logger) *SQLRepositoryManager {
	m.log = log
	return m
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// Tokens returns a tokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewSQLRepository(db)
}

// Privileges returns a privileges.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Privileges(db dbx.DBTX) privileges.Repository {
	return privileges.NewSQLRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(gooseLogger(m.log))
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("goose dialect %s: %w", m.dialect, err)
	}
	if err := gooseUpContext(ctx, db, m.dir); err != nil {
		return fmt.Errorf("migrate %s: %w", m.dir, err)
	}
	return nil
}
