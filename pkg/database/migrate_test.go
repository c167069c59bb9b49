package database

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMigrations() fstest.MapFS {
	return fstest.MapFS{
		"002_index.up.sql":  {Data: []byte("CREATE INDEX idx ON device_carts (updated_at)")},
		"001_init.up.sql":   {Data: []byte("CREATE TABLE device_carts (key TEXT PRIMARY KEY)")},
		"001_init.down.sql": {Data: []byte("DROP TABLE device_carts")},
		"README.md":         {Data: []byte("not a migration")},
	}
}

func TestRunMigrations_AppliesPendingInOrder(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_init.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	mock.ExpectQuery("SELECT EXISTS").WithArgs("002_index.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE INDEX idx").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs("002_index.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, RunMigrations(context.Background(), mock, testMigrations(), quietLogger()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_RollsBackOnSQLError(t *testing.T) {
	mock, err := NewMockPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT EXISTS").WithArgs("001_init.up.sql").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE device_carts").WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err = RunMigrations(context.Background(), mock, testMigrations(), quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "001_init.up.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}
