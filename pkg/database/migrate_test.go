package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/wishlist/pkg/logger"
)

var testMigrations = fstest.MapFS{
	"002_add_index.up.sql":          {Data: []byte("CREATE INDEX idx ON wishlists (updated_at)")},
	"001_create_wishlists.up.sql":   {Data: []byte("CREATE TABLE wishlists (id UUID PRIMARY KEY)")},
	"001_create_wishlists.down.sql": {Data: []byte("DROP TABLE wishlists")},
	"README.md":                     {Data: []byte("not sql")},
}

func expectTrackingTable(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
}

func expectApplied(mock pgxmock.PgxPoolIface, name string, applied bool) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")).
		WithArgs(name).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
}

func TestUpMigrations_SortsAndFilters(t *testing.T) {
	names, err := upMigrations(testMigrations)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_create_wishlists.up.sql", "002_add_index.up.sql"}, names)
}

func TestRunMigrations_AppliesPending(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTrackingTable(mock)
	expectApplied(mock, "001_create_wishlists.up.sql", true)
	expectApplied(mock, "002_add_index.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX idx ON wishlists (updated_at)")).
		WillReturnResult(pgxmock.NewResult("CREATE INDEX", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")).
		WithArgs("002_add_index.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = RunMigrations(context.Background(), mock, testMigrations, logger.Discard())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_SQLErrorRollsBackWithoutRetry(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	expectTrackingTable(mock)
	expectApplied(mock, "001_create_wishlists.up.sql", false)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE wishlists")).
		WillReturnError(errors.New("syntax error at or near \"TABLE\""))
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, testMigrations, logger.Discard())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute migration 001_create_wishlists.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RetriesConnectionErrors(t *testing.T) {
	fastRetries(t)

	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnError(errors.New("dial tcp 127.0.0.1:5432: connection refused"))
	expectTrackingTable(mock)
	expectApplied(mock, "001_create_wishlists.up.sql", true)
	expectApplied(mock, "002_add_index.up.sql", true)

	err = RunMigrations(context.Background(), mock, testMigrations, logger.Discard())

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
