package users

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/dbx"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
)

// SQLRepository implements Repository over dbx.DBTX. The queries are shared
// by the PostgreSQL and SQLite dialects.
type SQLRepository struct {
	db dbx.DBTX
}

// NewSQLRepository constructs a repository bound to the given DBTX.
func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, password_hash)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.PasswordHash); err != nil {
		return dbx.Classify("create user", err)
	}
	return nil
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, name, password_hash FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, "get user by id", query, id)
}

func (r *SQLRepository) GetByName(ctx context.Context, name string) (*models.User, error) {
	query := `
		SELECT id, name, password_hash FROM users
		WHERE name = $1
	`
	return r.getOne(ctx, "get user by name", query, name)
}

func (r *SQLRepository) getOne(ctx context.Context, op, query string, arg string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&user.ID, &user.Name, &user.PasswordHash)
	if err != nil {
		return nil, dbx.Classify(op, err)
	}
	return user, nil
}

// LockPasswordHash rewrites the hash with itself. The row lock this takes is
// portable across PostgreSQL and SQLite, unlike SELECT ... FOR UPDATE.
func (r *SQLRepository) LockPasswordHash(ctx context.Context, id string) (string, error) {
	query := `
		UPDATE users SET password_hash = password_hash
		WHERE id = $1
		RETURNING password_hash
	`
	var hash string
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&hash); err != nil {
		return "", dbx.Classify("lock user", err)
	}
	return hash, nil
}

func (r *SQLRepository) UpdateName(ctx context.Context, id string, name string) error {
	query := `
		UPDATE users SET name = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, name)
	return expectOne("rename user", res, err)
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	query := `
		UPDATE users SET password_hash = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, hash)
	return expectOne("update password", res, err)
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM users
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	return expectOne("delete user", res, err)
}

func (r *SQLRepository) ListIDs(ctx context.Context, limit, offset int) ([]string, error) {
	query := `
		SELECT id FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	return r.listColumn(ctx, "list user ids", query, limit, offset)
}

func (r *SQLRepository) ListNames(ctx context.Context, limit, offset int) ([]string, error) {
	query := `
		SELECT name FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	return r.listColumn(ctx, "list user names", query, limit, offset)
}

func (r *SQLRepository) listColumn(ctx context.Context, op, query string, limit, offset int) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, dbx.Classify(op, err)
	}
	defer rows.Close()

	result := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, dbx.Classify(op, err)
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.Classify(op, err)
	}
	return result, nil
}

// expectOne turns an exec result that touched no row into ErrNotFound.
func expectOne(op string, res sql.Result, err error) error {
	if err != nil {
		return dbx.Classify(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.StoreFailure(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, common.ErrNotFound)
	}
	return nil
}
