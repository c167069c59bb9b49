package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/storefront/pkg/database"
	apperrors "github.com/utafrali/storefront/pkg/errors"
)

// Store implements storage.Storage on Redis. Every save refreshes the key TTL
// so idle carts eventually expire.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore creates a Redis-backed cart store. A zero ttl keeps keys forever.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{
		client: client,
		ttl:    ttl,
	}
}

// Load fetches the record stored under key.
func (s *Store) Load(ctx context.Context, key string) (data []byte, err error) {
	ctx, end := database.TraceOp(ctx, "redis", "GET", "GET "+key)
	defer func() { end(err) }()

	data, err = s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("cart record", key)
		}
		return nil, fmt.Errorf("redis get cart: %w", err)
	}
	return data, nil
}

// Save writes data under key with the configured TTL.
func (s *Store) Save(ctx context.Context, key string, data []byte) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "SET", "SET "+key)
	defer func() { end(err) }()

	if err = s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart: %w", err)
	}
	return nil
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := database.TraceOp(ctx, "redis", "DEL", "DEL "+key)
	defer func() { end(err) }()

	if err = s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del cart: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
