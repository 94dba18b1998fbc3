package db

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectCoreTables(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS feeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS duplicate_links").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS clusters").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS alerts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS metrics").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS vector").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS embeddings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE EXTENSION IF NOT EXISTS pg_trgm").WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectIndexes(mock sqlmock.Sqlmock) {
	names := []string{
		"idx_articles_published_at", "idx_articles_source_published",
		"idx_articles_category_published", "idx_articles_content_hash",
		"idx_duplicate_links_duplicate", "idx_alerts_created_at",
		"idx_alerts_category", "idx_feeds_enabled",
	}
	for _, n := range names {
		mock.ExpectExec("CREATE INDEX IF NOT EXISTS " + n).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_title_gin").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_content_gin").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_embeddings_vector").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMigrateUp_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectCoreTables(mock)
	expectIndexes(mock)

	err = MigrateUp(db)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_FeedsTableError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS feeds").WillReturnError(sql.ErrConnDone)

	err = MigrateUp(db)
	assert.Error(t, err)
	assert.Equal(t, sql.ErrConnDone, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_ArticlesTableError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS feeds").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnError(sql.ErrTxDone)

	err = MigrateUp(db)
	assert.Error(t, err)
	assert.Equal(t, sql.ErrTxDone, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_IndexError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	expectCoreTables(mock)
	mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_articles_published_at").WillReturnError(sql.ErrNoRows)

	err = MigrateUp(db)
	assert.Error(t, err)
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateDown_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DROP INDEX IF EXISTS idx_embeddings_vector").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS embeddings CASCADE").WillReturnResult(sqlmock.NewResult(0, 0))

	err = MigrateDown(db)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateDown_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DROP INDEX IF EXISTS idx_embeddings_vector").WillReturnError(sql.ErrConnDone)

	err = MigrateDown(db)
	assert.Error(t, err)
	assert.Equal(t, sql.ErrConnDone, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
