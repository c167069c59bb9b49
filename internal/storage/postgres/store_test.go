package postgres

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newStoreFixture(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := database.NewMockPool()
	require.NoError(t, err)
	store := NewStore(mock)
	store.now = func() time.Time { return fixedNow }
	return store, mock
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestStore_Load_Success(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM device_carts WHERE key =").
		WithArgs("ecommerce-cart:dev-1").
		WillReturnRows(pgxmock.NewRows([]string{"payload"}).AddRow([]byte(`{"version":1,"lines":[]}`)))

	got, err := store.Load(context.Background(), "ecommerce-cart:dev-1")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1,"lines":[]}`, string(got))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load_NotFound(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM device_carts").
		WithArgs("ecommerce-cart:missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.Load(context.Background(), "ecommerce-cart:missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Load_QueryError(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT payload FROM device_carts").
		WithArgs("k").
		WillReturnError(errors.New("connection refused"))

	_, err := store.Load(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load cart")
	assert.False(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Save / Delete
// ---------------------------------------------------------------------------

func TestStore_Save_Upserts(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO device_carts").
		WithArgs("k", []byte("payload"), fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), "k", []byte("payload")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Save_ExecError(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO device_carts").
		WithArgs("k", []byte("payload"), fixedNow).
		WillReturnError(errors.New("database timeout"))

	err := store.Save(context.Background(), "k", []byte("payload"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save cart")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Delete(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM device_carts WHERE key =").
		WithArgs("k").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.NoError(t, store.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PurgeOlderThan(t *testing.T) {
	store, mock := newStoreFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM device_carts WHERE updated_at <").
		WithArgs(fixedNow.Add(-168 * time.Hour)).
		WillReturnResult(pgxmock.NewResult("DELETE", 4))

	n, err := store.PurgeOlderThan(context.Background(), 168*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrations_Embedded(t *testing.T) {
	names, err := fs.Glob(Migrations(), "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{"001_device_carts.up.sql", "002_device_carts_updated_at.up.sql"}, names)

	content, err := fs.ReadFile(Migrations(), "001_device_carts.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS device_carts")
}
