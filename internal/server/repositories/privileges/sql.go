package privileges

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
)

// SQLRepository implements Repository over dbx.DBTX.
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Upsert(ctx context.Context, mask, key, value string) error {
	query := `
		INSERT INTO privileges (mask, pkey, pval) VALUES ($1, $2, $3)
		ON CONFLICT (mask, pkey) DO UPDATE SET pval = excluded.pval
	`
	if _, err := r.db.ExecContext(ctx, query, mask, key, value); err != nil {
		return dbx.Classify("set privilege", err)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, mask, key string) error {
	query := `
		DELETE FROM privileges
		WHERE mask = $1 AND pkey = $2
	`
	res, err := r.db.ExecContext(ctx, query, mask, key)
	if err != nil {
		return dbx.Classify("unset privilege", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StoreFailure("unset privilege", err)
	}
	if n == 0 {
		return fmt.Errorf("unset privilege: %w", common.ErrNotFound)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, mask, key string) (string, bool, error) {
	query := `
		SELECT pval FROM privileges
		WHERE mask = $1 AND pkey = $2
	`
	var value string
	err := r.db.QueryRowContext(ctx, query, mask, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, dbx.Classify("get privilege", err)
	}
	return value, true, nil
}

func (r *SQLRepository) List(ctx context.Context, mask string) (map[string]string, error) {
	query := `
		SELECT pkey, pval FROM privileges
		WHERE mask = $1
	`
	rows, err := r.db.QueryContext(ctx, query, mask)
	if err != nil {
		return nil, dbx.Classify("list privileges", err)
	}
	defer rows.Close()

	result := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, dbx.Classify("list privileges", err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify("list privileges", err)
	}
	return result, nil
}
