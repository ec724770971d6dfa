package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tokenkeeper/internal/filex"
	"github.com/dmitrijs2005/tokenkeeper/internal/logging"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// Open connects to the store, verifies the connection and brings the schema
// up to date, reporting migrations to log. The returned manager matches the
// driver.
func Open(ctx context.Context, driver, dsn string, log logging.Logger) (*sql.DB, RepositoryManager, error) {
	var m *SQLRepositoryManager
	switch driver {
	case DriverSQLite:
		if path := sqlitePath(dsn); path != "" {
			if _, err := filex.EnsureParentDir(path); err != nil {
				return nil, nil, err
			}
		}
		dsn = SQLiteDSN(dsn)
		m = NewSQLiteRepositoryManager().WithLogger(log)
	case DriverPostgres:
		m = NewPostgresRepositoryManager().WithLogger(log)
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// A single writer avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return db, m, nil
}

// SQLiteDSN turns a path or file: URI into a DSN with foreign keys enabled.
// Cascading deletes depend on it.
func SQLiteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// sqlitePath extracts the file path from a DSN, or "" for in-memory stores.
func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return ""
	}
	return p
}
