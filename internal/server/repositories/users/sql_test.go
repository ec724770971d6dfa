package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/tokenkeeper/internal/common"
	"github.com/dmitrijs2005/tokenkeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*SQLRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewSQLRepository(db), mock
}

const (
	qInsert    = `(?s)^\s*INSERT\s+INTO\s+users\s*\(id,\s*name,\s*password_hash\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*$`
	qByID      = `(?s)^\s*SELECT\s+id,\s*name,\s*password_hash\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	qByName    = `(?s)^\s*SELECT\s+id,\s*name,\s*password_hash\s+FROM\s+users\s+WHERE\s+name\s*=\s*\$1\s*$`
	qLock      = `(?s)^\s*UPDATE\s+users\s+SET\s+password_hash\s*=\s*password_hash\s+WHERE\s+id\s*=\s*\$1\s+RETURNING\s+password_hash\s*$`
	qRename    = `(?s)^\s*UPDATE\s+users\s+SET\s+name\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
	qRepass    = `(?s)^\s*UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$1\s*$`
	qDelete    = `(?s)^\s*DELETE\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	qListIDs   = `(?s)^\s*SELECT\s+id\s+FROM\s+users\s+ORDER\s+BY\s+id\s+LIMIT\s+\$1\s+OFFSET\s+\$2\s*$`
	qListNames = `(?s)^\s*SELECT\s+name\s+FROM\s+users\s+ORDER\s+BY\s+id\s+LIMIT\s+\$1\s+OFFSET\s+\$2\s*$`
)

func TestCreate_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(qInsert).
		WithArgs("u-1", "alice", "$argon2id$hash").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Create(context.Background(), &models.User{ID: "u-1", Name: "alice", PasswordHash: "$argon2id$hash"})
	require.NoError(t, err)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(qInsert).
		WithArgs("u-1", "alice", "h").
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.User{ID: "u-1", Name: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, common.ErrStoreFailure)
	assert.ErrorContains(t, err, "create user")
	assert.ErrorContains(t, err, "db down")
}

func TestGetByID_Found(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id", "name", "password_hash"}).AddRow("u-1", "alice", "h")
	mock.ExpectQuery(qByID).WithArgs("u-1").WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "u-1", Name: "alice", PasswordHash: "h"}, got)
}

func TestGetByName_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qByName).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByName(context.Background(), "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByName_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qByName).WithArgs("alice").WillReturnError(errors.New("db err"))

	_, err := repo.GetByName(context.Background(), "alice")
	assert.ErrorIs(t, err, common.ErrStoreFailure)
}

func TestLockPasswordHash(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	mock.ExpectQuery(qLock).WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow("h"))
	mock.ExpectQuery(qLock).WithArgs("ghost").WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(qLock).WithArgs("u-2").WillReturnError(errors.New("db down"))

	hash, err := repo.LockPasswordHash(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "h", hash)

	_, err = repo.LockPasswordHash(ctx, "ghost")
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.LockPasswordHash(ctx, "u-2")
	assert.ErrorIs(t, err, common.ErrStoreFailure)
}

func TestUpdates_NoRowIsNotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(qRename).WithArgs("ghost", "bob").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qRepass).WithArgs("ghost", "h").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(qDelete).WithArgs("ghost").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.UpdateName(ctx, "ghost", "bob"), common.ErrNotFound)
	assert.ErrorIs(t, repo.UpdatePasswordHash(ctx, "ghost", "h"), common.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "ghost"), common.ErrNotFound)
}

func TestUpdates_Success(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	ctx := context.Background()

	mock.ExpectExec(qRename).WithArgs("u-1", "bob").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qRepass).WithArgs("u-1", "h2").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qDelete).WithArgs("u-1").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateName(ctx, "u-1", "bob"))
	require.NoError(t, repo.UpdatePasswordHash(ctx, "u-1", "h2"))
	require.NoError(t, repo.Delete(ctx, "u-1"))
}

func TestUpdate_RowsAffectedError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectExec(qDelete).WithArgs("u-1").
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no count")))

	assert.ErrorIs(t, repo.Delete(context.Background(), "u-1"), common.ErrStoreFailure)
}

func TestListIDs(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"id"}).AddRow("u-1").AddRow("u-2")
	mock.ExpectQuery(qListIDs).WithArgs(2, 0).WillReturnRows(rows)

	got, err := repo.ListIDs(context.Background(), 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-2"}, got)
}

func TestListNames_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(qListNames).WithArgs(10, 20).WillReturnRows(sqlmock.NewRows([]string{"name"}))

	got, err := repo.ListNames(context.Background(), 10, 20)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListNames_RowError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows([]string{"name"}).AddRow("alice").RowError(0, errors.New("broken row"))
	mock.ExpectQuery(qListNames).WithArgs(10, 0).WillReturnRows(rows)

	_, err := repo.ListNames(context.Background(), 10, 0)
	assert.ErrorIs(t, err, common.ErrStoreFailure)
}
