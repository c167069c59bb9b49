package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the schema migrations for the device_carts table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(fmt.Sprintf("postgres migrations: %v", err))
	}
	return sub
}

const (
	loadSQL = `SELECT payload FROM device_carts WHERE key = $1`

	saveSQL = `
		INSERT INTO device_carts (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

	deleteSQL = `DELETE FROM device_carts WHERE key = $1`

	purgeSQL = `DELETE FROM device_carts WHERE updated_at < $1`
)

// Store implements storage.Storage on PostgreSQL.
type Store struct {
	db  database.DBTX
	now func() time.Time
}

// NewStore creates a PostgreSQL-backed cart store.
func NewStore(db database.DBTX) *Store {
	return &Store{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Load fetches the payload stored under key.
func (s *Store) Load(ctx context.Context, key string) (data []byte, err error) {
	ctx, end := database.TraceQuery(ctx, "LoadCart", loadSQL)
	defer func() { end(err) }()

	if err = s.db.QueryRow(ctx, loadSQL, key).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("cart record", key)
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return data, nil
}

// Save upserts the payload under key.
func (s *Store) Save(ctx context.Context, key string, data []byte) (err error) {
	ctx, end := database.TraceQuery(ctx, "SaveCart", saveSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, saveSQL, key, data, s.now()); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// Delete removes the row under key.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteCart", deleteSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

// PurgeOlderThan deletes carts untouched for longer than age and returns the
// number of rows removed.
func (s *Store) PurgeOlderThan(ctx context.Context, age time.Duration) (n int64, err error) {
	ctx, end := database.TraceQuery(ctx, "PurgeCarts", purgeSQL)
	defer func() { end(err) }()

	tag, err := s.db.Exec(ctx, purgeSQL, s.now().Add(-age))
	if err != nil {
		return 0, fmt.Errorf("purge carts: %w", err)
	}
	return tag.RowsAffected(), nil
}
