package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunMigrations_Embedded(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE kv_records")).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, RunMigrations(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_OrderAndIdempotence(t *testing.T) {
	files := fstest.MapFS{
		"migrations/000002_b.up.sql":   {Data: []byte("CREATE INDEX idx_b ON t (b);\n")},
		"migrations/000001_a.up.sql":   {Data: []byte("CREATE TABLE t (b NUMBER)")},
		"migrations/000001_a.down.sql": {Data: []byte("DROP TABLE t")},
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE t (b NUMBER)").
		WillReturnError(errors.New("ORA-00955: name is already used by an existing object"))
	mock.ExpectExec("CREATE INDEX idx_b ON t (b)").WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, runMigrations(context.Background(), db, files))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Failure(t *testing.T) {
	files := fstest.MapFS{
		"migrations/000001_a.up.sql": {Data: []byte("CREATE TABLE t (b NUMBER)")},
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE t (b NUMBER)").WillReturnError(errors.New("ORA-01031: insufficient privileges"))

	err = runMigrations(context.Background(), db, files)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "000001_a.up.sql")
}
